package router

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func note(method, params string) Notification {
	return Notification{Method: method, Params: json.RawMessage(params), ReceivedAt: time.Now()}
}

func TestDispatcher_RegistrationOrder(t *testing.T) {
	d := NewDispatcher(nil)

	var order []string
	d.Subscribe(func(Notification) { order = append(order, "first") })
	d.Subscribe(func(Notification) { order = append(order, "second") })
	d.Subscribe(func(Notification) { order = append(order, "third") })

	d.Dispatch(note("camera_status_update", `{}`))

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestDispatcher_ArrivalOrder(t *testing.T) {
	d := NewDispatcher(nil)

	var got []string
	d.Subscribe(func(n Notification) { got = append(got, string(n.Params)) })

	for _, p := range []string{`1`, `2`, `3`} {
		d.Dispatch(note("recording_status_update", p))
	}

	if len(got) != 3 || got[0] != "1" || got[1] != "2" || got[2] != "3" {
		t.Errorf("received %v, want [1 2 3]", got)
	}
}

func TestDispatcher_SubscribeMethod(t *testing.T) {
	d := NewDispatcher(nil)

	var camera, all int
	d.SubscribeMethod("camera_status_update", func(Notification) { camera++ })
	d.Subscribe(func(Notification) { all++ })

	d.Dispatch(note("camera_status_update", `{}`))
	d.Dispatch(note("recording_status_update", `{}`))

	if camera != 1 {
		t.Errorf("camera listener called %d times, want 1", camera)
	}
	if all != 2 {
		t.Errorf("catch-all listener called %d times, want 2", all)
	}
}

func TestDispatcher_Unsubscribe(t *testing.T) {
	d := NewDispatcher(nil)

	var calls int
	unsubscribe := d.Subscribe(func(Notification) { calls++ })
	other := d.Subscribe(func(Notification) {})

	d.Dispatch(note("x", `{}`))
	unsubscribe()
	unsubscribe() // idempotent
	d.Dispatch(note("x", `{}`))

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if d.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (second unsubscribe must not remove another listener)", d.Len())
	}

	other()
	if d.Len() != 0 {
		t.Errorf("Len() = %d, want 0", d.Len())
	}
}

func TestDispatcher_UnsubscribeDuringDispatch(t *testing.T) {
	d := NewDispatcher(nil)

	var secondCalls int
	var unsubscribeSecond func()
	d.Subscribe(func(Notification) { unsubscribeSecond() })
	unsubscribeSecond = d.Subscribe(func(Notification) { secondCalls++ })

	// The snapshot taken at dispatch time still includes the second listener.
	d.Dispatch(note("x", `{}`))
	d.Dispatch(note("x", `{}`))

	if secondCalls != 1 {
		t.Errorf("second listener called %d times, want 1", secondCalls)
	}
}

func TestDispatcher_PanicRecovered(t *testing.T) {
	d := NewDispatcher(nil)

	var after int
	d.Subscribe(func(Notification) { panic("listener bug") })
	d.Subscribe(func(Notification) { after++ })

	d.Dispatch(note("camera_status_update", `{}`))

	if after != 1 {
		t.Errorf("listener after panicking one called %d times, want 1", after)
	}
	if s := d.Stats(); s.Panics != 1 {
		t.Errorf("Panics = %d, want 1", s.Panics)
	}
}

func TestDispatcher_Stats(t *testing.T) {
	d := NewDispatcher(nil)

	d.Dispatch(note("nobody_listens", `{}`))
	d.SubscribeMethod("camera_status_update", func(Notification) {})
	d.Subscribe(func(Notification) {})
	d.Dispatch(note("camera_status_update", `{}`))

	s := d.Stats()
	if s.Dispatched != 2 {
		t.Errorf("Dispatched = %d, want 2", s.Dispatched)
	}
	if s.Delivered != 2 {
		t.Errorf("Delivered = %d, want 2", s.Delivered)
	}
	if s.Unobserved != 1 {
		t.Errorf("Unobserved = %d, want 1", s.Unobserved)
	}
	if s.Listeners != 2 {
		t.Errorf("Listeners = %d, want 2", s.Listeners)
	}
}

func TestDispatcher_ConcurrentSubscribe(t *testing.T) {
	d := NewDispatcher(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsubscribe := d.Subscribe(func(Notification) {})
			unsubscribe()
		}()
		go func() {
			defer wg.Done()
			d.Dispatch(note("x", `{}`))
		}()
	}
	wg.Wait()

	if d.Len() != 0 {
		t.Errorf("Len() = %d, want 0", d.Len())
	}
}

func TestBufferListener(t *testing.T) {
	d := NewDispatcher(nil)
	buf := NewGrowableBuffer[Notification](4, 0)
	d.Subscribe(BufferListener(buf))

	d.Dispatch(note("camera_status_update", `{"device":"/dev/video0"}`))
	d.Dispatch(note("recording_status_update", `{"device":"/dev/video0"}`))

	items := buf.DrainTo(0)
	if len(items) != 2 {
		t.Fatalf("buffered %d notifications, want 2", len(items))
	}
	if items[0].Method != "camera_status_update" || items[1].Method != "recording_status_update" {
		t.Errorf("methods = %q, %q", items[0].Method, items[1].Method)
	}
}

func TestDecode(t *testing.T) {
	type update struct {
		Device string `json:"device"`
		Status string `json:"status"`
	}

	got, err := Decode[update](note("camera_status_update", `{"device":"/dev/video0","status":"CONNECTED"}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Device != "/dev/video0" || got.Status != "CONNECTED" {
		t.Errorf("Decode = %+v", got)
	}

	if _, err := Decode[update](Notification{Method: "camera_status_update"}); err == nil {
		t.Error("expected error for missing params")
	}
	if _, err := Decode[update](note("camera_status_update", `[1,2]`)); err == nil {
		t.Error("expected error for non-object params")
	}
}
