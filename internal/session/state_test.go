package session

import (
	"testing"

	"solana-drop-client/internal/domain"
)

func snapshot(remaining, redeemed uint64) *domain.DropSnapshot {
	return &domain.DropSnapshot{
		DropID:    "drop1",
		Available: remaining + redeemed,
		Remaining: remaining,
		Redeemed:  redeemed,
		Price:     500_000_000,
	}
}

func TestState_ApplyRefresh(t *testing.T) {
	s := New()
	s.SetWallet("wallet1")

	gen := s.BeginRefresh()
	ok := s.ApplyRefresh(gen, View{
		Snapshot:       snapshot(10, 5),
		NativeBalance:  2_000_000_000,
		OwnershipCount: 1,
	})
	if !ok {
		t.Fatal("expected refresh to apply")
	}

	v := s.View()
	if v.Snapshot == nil || v.Snapshot.Remaining != 10 {
		t.Errorf("unexpected snapshot: %+v", v.Snapshot)
	}
	if v.NativeBalance != 2_000_000_000 || v.OwnershipCount != 1 {
		t.Errorf("unexpected view: %+v", v)
	}
}

func TestState_StaleRefreshDiscarded(t *testing.T) {
	s := New()
	s.SetWallet("wallet1")

	gen := s.BeginRefresh()
	s.SetWallet("wallet2") // supersedes the in-flight fetch

	if s.ApplyRefresh(gen, View{NativeBalance: 999}) {
		t.Fatal("stale refresh must be discarded")
	}
	if s.View().NativeBalance != 0 {
		t.Error("stale data leaked into the session")
	}
}

func TestState_SetWalletClearsDerivedFields(t *testing.T) {
	s := New()
	s.SetWallet("wallet1")
	s.ApplyRefresh(s.BeginRefresh(), View{
		NativeBalance:    100,
		WhitelistBalance: 2,
		OwnershipCount:   1,
	})

	s.SetWallet("wallet2")

	v := s.View()
	if v.NativeBalance != 0 || v.WhitelistBalance != 0 || v.OwnershipCount != 0 {
		t.Errorf("wallet switch must clear derived fields: %+v", v)
	}
	if v.Wallet != "wallet2" {
		t.Errorf("expected wallet2, got %s", v.Wallet)
	}
}

func TestState_ViewReturnsCopy(t *testing.T) {
	s := New()
	s.ApplyRefresh(s.BeginRefresh(), View{Snapshot: snapshot(10, 0)})

	v := s.View()
	v.Snapshot.Remaining = 1

	if s.View().Snapshot.Remaining != 10 {
		t.Error("session snapshot was mutated through a view")
	}
}

func TestState_ApplyMintSuccess(t *testing.T) {
	s := New()
	s.SetWallet("wallet1")
	s.ApplyRefresh(s.BeginRefresh(), View{
		Snapshot:       snapshot(10, 5),
		NativeBalance:  2_000_000_000,
		OwnershipCount: 1,
	})

	s.ApplyMintSuccess(500_000_000, 12_000_000, false)

	v := s.View()
	if v.Snapshot.Remaining != 9 || v.Snapshot.Redeemed != 6 {
		t.Errorf("supply counters wrong: %d remaining, %d redeemed",
			v.Snapshot.Remaining, v.Snapshot.Redeemed)
	}
	if v.Snapshot.SoldOut {
		t.Error("drop with remaining supply must not be sold out")
	}
	if want := uint64(2_000_000_000 - 500_000_000 - 12_000_000); v.NativeBalance != want {
		t.Errorf("expected balance %d, got %d", want, v.NativeBalance)
	}
	if v.OwnershipCount != 2 {
		t.Errorf("expected ownership 2, got %d", v.OwnershipCount)
	}
}

func TestState_ApplyMintSuccess_LastItemSellsOut(t *testing.T) {
	s := New()
	s.SetWallet("wallet1")
	s.ApplyRefresh(s.BeginRefresh(), View{
		Snapshot:      snapshot(1, 9),
		NativeBalance: 1_000_000_000,
	})

	s.ApplyMintSuccess(500_000_000, 12_000_000, false)

	v := s.View()
	if !v.Snapshot.SoldOut || v.Snapshot.Remaining != 0 {
		t.Errorf("last item must sell out the drop: %+v", v.Snapshot)
	}
}

func TestState_ApplyMintSuccess_WhitelistConsumed(t *testing.T) {
	s := New()
	s.SetWallet("wallet1")
	s.ApplyRefresh(s.BeginRefresh(), View{
		Snapshot:         snapshot(10, 0),
		NativeBalance:    1_000_000_000,
		WhitelistBalance: 2,
	})

	s.ApplyMintSuccess(250_000_000, 12_000_000, true)

	if got := s.View().WhitelistBalance; got != 1 {
		t.Errorf("expected whitelist balance 1, got %d", got)
	}
}

func TestState_ApplyMintSuccess_TokenPayment(t *testing.T) {
	mint := "payMint"
	snap := snapshot(10, 0)
	snap.TokenMint = &mint

	s := New()
	s.SetWallet("wallet1")
	s.ApplyRefresh(s.BeginRefresh(), View{
		Snapshot:      snap,
		NativeBalance: 100_000_000,
		TokenBalance:  5_000,
	})

	s.ApplyMintSuccess(1_000, 12_000_000, false)

	v := s.View()
	if v.TokenBalance != 4_000 {
		t.Errorf("expected token balance 4000, got %d", v.TokenBalance)
	}
	if v.NativeBalance != 88_000_000 {
		t.Errorf("fee should still come out of lamports, got %d", v.NativeBalance)
	}
}

func TestState_ApplyMintSuccess_BalanceNeverUnderflows(t *testing.T) {
	s := New()
	s.SetWallet("wallet1")
	s.ApplyRefresh(s.BeginRefresh(), View{
		Snapshot:      snapshot(10, 0),
		NativeBalance: 1_000,
	})

	s.ApplyMintSuccess(500_000_000, 12_000_000, false)

	if got := s.View().NativeBalance; got != 0 {
		t.Errorf("balance must clamp at zero, got %d", got)
	}
}
