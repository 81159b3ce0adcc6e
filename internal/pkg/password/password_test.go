package password

import "testing"

func TestHashAndCompare(t *testing.T) {
	hash, err := Hash("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash should not equal the plaintext")
	}
	if err := Compare(hash, "s3cret"); err != nil {
		t.Fatalf("compare with correct password: %v", err)
	}
	if err := Compare(hash, "wrong"); err == nil {
		t.Fatal("compare with wrong password should fail")
	}
}

func TestHash_Salted(t *testing.T) {
	a, err := Hash("same")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := Hash("same")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password should differ")
	}
}
