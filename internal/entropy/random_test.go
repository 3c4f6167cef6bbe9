package entropy

import "testing"

func TestNewIsDeterministicForSeed(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 100; i++ {
		if x, y := a.Intn(1000), b.Intn(1000); x != y {
			t.Fatalf("draw %d differs: %d vs %d", i, x, y)
		}
	}
}

func TestCryptoSeedNonZero(t *testing.T) {
	for i := 0; i < 10; i++ {
		if CryptoSeed() <= 0 {
			t.Fatal("expected positive seed")
		}
	}
}

func TestPick(t *testing.T) {
	src := New(7)
	if _, ok := Pick(src, 0); ok {
		t.Fatal("pick from empty collection should fail")
	}
	for i := 0; i < 50; i++ {
		idx, ok := Pick(src, 3)
		if !ok || idx < 0 || idx >= 3 {
			t.Fatalf("Pick = %d, %v", idx, ok)
		}
	}
}
