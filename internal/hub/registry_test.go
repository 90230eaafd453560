package hub

import (
	"reflect"
	"testing"
)

func TestRegistry_SubscribeActivates(t *testing.T) {
	r := NewRegistry()

	added, activated := r.Subscribe("c1", []string{"BTCUSDT", "ETHUSDT"})
	if !reflect.DeepEqual(added, []string{"BTCUSDT", "ETHUSDT"}) {
		t.Errorf("added = %v, want [BTCUSDT ETHUSDT]", added)
	}
	if !reflect.DeepEqual(activated, []string{"BTCUSDT", "ETHUSDT"}) {
		t.Errorf("activated = %v, want [BTCUSDT ETHUSDT]", activated)
	}

	// A second client on the same symbol adds interest but activates nothing.
	added, activated = r.Subscribe("c2", []string{"BTCUSDT"})
	if len(added) != 1 {
		t.Errorf("len(added) = %d, want 1", len(added))
	}
	if len(activated) != 0 {
		t.Errorf("activated = %v, want empty", activated)
	}

	if n := r.SubscriberCount("BTCUSDT"); n != 2 {
		t.Errorf("SubscriberCount(BTCUSDT) = %d, want 2", n)
	}
}

func TestRegistry_SubscribeIdempotent(t *testing.T) {
	r := NewRegistry()

	r.Subscribe("c1", []string{"BTCUSDT"})
	added, activated := r.Subscribe("c1", []string{"BTCUSDT"})

	if len(added) != 0 {
		t.Errorf("repeat added = %v, want empty", added)
	}
	if len(activated) != 0 {
		t.Errorf("repeat activated = %v, want empty", activated)
	}
	if n := r.SubscriberCount("BTCUSDT"); n != 1 {
		t.Errorf("SubscriberCount = %d, want 1", n)
	}
}

func TestRegistry_UnsubscribeDeactivatesLast(t *testing.T) {
	r := NewRegistry()
	r.Subscribe("c1", []string{"BTCUSDT"})
	r.Subscribe("c2", []string{"BTCUSDT"})

	removed, deactivated := r.Unsubscribe("c1", []string{"BTCUSDT"})
	if !reflect.DeepEqual(removed, []string{"BTCUSDT"}) {
		t.Errorf("removed = %v, want [BTCUSDT]", removed)
	}
	if len(deactivated) != 0 {
		t.Errorf("deactivated = %v, want empty while c2 remains", deactivated)
	}

	_, deactivated = r.Unsubscribe("c2", []string{"BTCUSDT"})
	if !reflect.DeepEqual(deactivated, []string{"BTCUSDT"}) {
		t.Errorf("deactivated = %v, want [BTCUSDT]", deactivated)
	}

	if syms := r.ActiveSymbols(); len(syms) != 0 {
		t.Errorf("ActiveSymbols = %v, want empty", syms)
	}
}

func TestRegistry_UnsubscribeUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Subscribe("c1", []string{"BTCUSDT"})

	removed, deactivated := r.Unsubscribe("c1", []string{"ETHUSDT"})
	if len(removed) != 0 || len(deactivated) != 0 {
		t.Errorf("unknown unsubscribe = %v, %v; want empty, empty", removed, deactivated)
	}

	removed, deactivated = r.Unsubscribe("ghost", []string{"BTCUSDT"})
	if len(removed) != 0 || len(deactivated) != 0 {
		t.Errorf("unknown client unsubscribe = %v, %v; want empty, empty", removed, deactivated)
	}
}

func TestRegistry_RemoveClient(t *testing.T) {
	r := NewRegistry()
	r.Subscribe("c1", []string{"BTCUSDT", "ETHUSDT"})
	r.Subscribe("c2", []string{"BTCUSDT"})

	deactivated := r.RemoveClient("c1")
	if len(deactivated) != 1 || deactivated[0] != "ETHUSDT" {
		t.Errorf("deactivated = %v, want [ETHUSDT]", deactivated)
	}

	if syms := r.ClientSymbols("c1"); len(syms) != 0 {
		t.Errorf("ClientSymbols(c1) = %v, want empty", syms)
	}
	if !reflect.DeepEqual(r.ActiveSymbols(), []string{"BTCUSDT"}) {
		t.Errorf("ActiveSymbols = %v, want [BTCUSDT]", r.ActiveSymbols())
	}

	// Removing an unknown client is safe.
	if deactivated := r.RemoveClient("ghost"); len(deactivated) != 0 {
		t.Errorf("RemoveClient(ghost) = %v, want empty", deactivated)
	}
}

func TestRegistry_Subscribers(t *testing.T) {
	r := NewRegistry()
	r.Subscribe("c1", []string{"BTCUSDT"})
	r.Subscribe("c2", []string{"BTCUSDT"})

	subs := r.Subscribers("BTCUSDT")
	if len(subs) != 2 {
		t.Errorf("len(Subscribers) = %d, want 2", len(subs))
	}
	if subs := r.Subscribers("ETHUSDT"); subs != nil {
		t.Errorf("Subscribers(ETHUSDT) = %v, want nil", subs)
	}
}

func TestRegistry_ClientSymbolsSorted(t *testing.T) {
	r := NewRegistry()
	r.Subscribe("c1", []string{"ETHUSDT", "BTCUSDT", "SOLUSDT"})

	got := r.ClientSymbols("c1")
	want := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ClientSymbols = %v, want %v", got, want)
	}
}
