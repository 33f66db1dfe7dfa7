package address

import "testing"

func TestAddressesAreDeterministic(t *testing.T) {
	if Poll(1) != Poll(1) {
		t.Fatal("expected poll address to be stable")
	}
	if Candidate(1, "Pink") != Candidate(1, "Pink") {
		t.Fatal("expected candidate address to be stable")
	}
}

func TestAddressesDoNotCollide(t *testing.T) {
	seen := map[Address]string{}
	add := func(label string, addr Address) {
		if prior, ok := seen[addr]; ok {
			t.Fatalf("%s collides with %s", label, prior)
		}
		seen[addr] = label
	}
	add("poll 1", Poll(1))
	add("poll 2", Poll(2))
	add("candidate 1/Pink", Candidate(1, "Pink"))
	add("candidate 2/Pink", Candidate(2, "Pink"))
	add("candidate 1/Blue", Candidate(1, "Blue"))
	add("candidate 1/empty", Candidate(1, ""))
	add("receipt 1/Pink", Receipt(1, "Pink"))
	add("receipt 1/alice", Receipt(1, "alice"))
	add("receipt 2/alice", Receipt(2, "alice"))
}

func TestLengthPrefixSeparatesKeys(t *testing.T) {
	// "ab" + "c" and "a" + "bc" must encode differently.
	left := append(lengthPrefixed("ab"), lengthPrefixed("c")...)
	right := append(lengthPrefixed("a"), lengthPrefixed("bc")...)
	if string(left) == string(right) {
		t.Fatal("expected length prefixes to separate key parts")
	}
}
