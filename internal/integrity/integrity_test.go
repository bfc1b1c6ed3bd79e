package integrity

import "testing"

func TestComputeHash_Deterministic(t *testing.T) {
	h1 := ComputeHash("run-1", "game-42", "spread", "0.85")
	h2 := ComputeHash("run-1", "game-42", "spread", "0.85")

	if h1 != h2 {
		t.Fatalf("hash not deterministic: %q != %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("expected 64-char hex SHA-256 digest, got %d chars", len(h1))
	}
}

func TestComputeHash_DifferentInputsDiffer(t *testing.T) {
	h1 := ComputeHash("run-1", "game-42", "winner", "home")
	h2 := ComputeHash("run-1", "game-42", "winner", "away")

	if h1 == h2 {
		t.Fatal("different field values should produce different hashes")
	}
}

func TestComputeHash_LengthPrefixAvoidsDelimiterCollision(t *testing.T) {
	// Without length-prefixing, naive concatenation of ("ab","c") and
	// ("a","bc") would collide.
	h1 := ComputeHash("ab", "c")
	h2 := ComputeHash("a", "bc")

	if h1 == h2 {
		t.Fatal("length-prefixed fields must not collide across boundary shifts")
	}
}

func TestComputeHash_FieldOrderMatters(t *testing.T) {
	h1 := ComputeHash("home", "away")
	h2 := ComputeHash("away", "home")

	if h1 == h2 {
		t.Fatal("reordering fields should change the hash")
	}
}

func TestVerify_SucceedsForMatchingFields(t *testing.T) {
	hash := ComputeHash("expert-9", "game-7", "total_under")

	if !Verify(hash, "expert-9", "game-7", "total_under") {
		t.Fatal("verification should succeed for matching inputs")
	}
}

func TestVerify_FailsForTamperedFields(t *testing.T) {
	hash := ComputeHash("expert-9", "game-7", "total_under")

	if Verify(hash, "expert-9", "game-7", "total_over") {
		t.Fatal("verification should fail once a field is tampered")
	}
}

func TestVerify_FailsForTamperedHash(t *testing.T) {
	if Verify("0000000000000000000000000000000000000000000000000000000000000000", "expert-9", "game-7") {
		t.Fatal("verification should fail for a hash that was never computed from these fields")
	}
}

func TestComputeHash_EmptyFieldListIsStillDeterministic(t *testing.T) {
	h1 := ComputeHash()
	h2 := ComputeHash()

	if h1 != h2 {
		t.Fatal("zero-field hash should still be deterministic")
	}
}
