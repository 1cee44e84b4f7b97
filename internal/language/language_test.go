package language

import "testing"

func TestLookup(t *testing.T) {
	l, ok := Lookup("en")
	if !ok {
		t.Fatal("en should be supported")
	}
	if l.Name != "English" {
		t.Errorf("en Name = %q, want English", l.Name)
	}

	if _, ok := Lookup("xx"); ok {
		t.Error("xx should not be supported")
	}
	if _, ok := Lookup(""); ok {
		t.Error("empty code should not be supported")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("en"); err != nil {
		t.Errorf("Validate(en) = %v", err)
	}
	if err := Validate("klingon"); err == nil {
		t.Error("Validate(klingon) should fail")
	}
}

func TestAllCodesMatchIndex(t *testing.T) {
	codes := AllCodes()
	if len(codes) == 0 {
		t.Fatal("no languages registered")
	}
	for _, code := range codes {
		if !IsValid(code) {
			t.Errorf("code %q listed but not valid", code)
		}
	}
}
