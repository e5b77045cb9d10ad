package sharding

import (
	"fmt"
	"testing"
)

func TestShardRangeCoversFullSpaceWithNoGaps(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 8} {
		var prevEnd string
		for i := 0; i < n; i++ {
			start, end := ShardRange(i, n)
			if i == 0 && start != "0000000000000000" {
				t.Errorf("n=%d: first shard should start at zero, got %s", n, start)
			}
			if i > 0 && start != prevEnd {
				t.Errorf("n=%d shard=%d: gap or overlap, prev end %s != start %s", n, i, prevEnd, start)
			}
			if start >= end {
				t.Errorf("n=%d shard=%d: range not increasing: [%s, %s)", n, i, start, end)
			}
			prevEnd = end
		}
		if prevEnd != "ffffffffffffffff" {
			t.Errorf("n=%d: last shard should end at max key, got %s", n, prevEnd)
		}
	}
}

func TestShardKeyIsDeterministic(t *testing.T) {
	a := ShardKey("account-1")
	b := ShardKey("account-1")
	if a != b {
		t.Fatalf("ShardKey not deterministic: %s != %s", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("expected 16 hex chars, got %d (%s)", len(a), a)
	}
}

func TestEveryAccountFallsInExactlyOneShard(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 7} {
		for i := 0; i < 200; i++ {
			accountId := fmt.Sprintf("account-%d", i)
			key := ShardKey(accountId)

			matches := 0
			for shard := 0; shard < n; shard++ {
				start, end := ShardRange(shard, n)
				if InRange(key, start, end) {
					matches++
				}
			}
			if matches != 1 {
				t.Fatalf("n=%d account=%s: expected exactly one matching shard, got %d", n, accountId, matches)
			}
		}
	}
}

func TestIndexForAgreesWithInRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		accountId := fmt.Sprintf("acct-%d", i)
		idx := IndexFor(accountId, 4)
		start, end := ShardRange(idx, 4)
		if !InRange(ShardKey(accountId), start, end) {
			t.Fatalf("IndexFor returned shard %d but key is not in its range", idx)
		}
	}
}

func TestShardRangeSingleShardCoversEverything(t *testing.T) {
	start, end := ShardRange(0, 1)
	if start != "0000000000000000" || end != "ffffffffffffffff" {
		t.Fatalf("single shard should cover [0000000000000000, ffffffffffffffff), got [%s, %s)", start, end)
	}
}
