package headless

import "testing"

func TestContext_SetTimeRoundTrips(t *testing.T) {
	ctx := NewContext()
	ctx.SetTime(12.5)
	if got := ctx.CurrentTime(); got != 12.5 {
		t.Errorf("CurrentTime() = %v, want 12.5", got)
	}
}

func TestContext_ReportsNoPanningCapability(t *testing.T) {
	ctx := NewContext()
	if _, ok := ctx.CreatePannerNode(); ok {
		t.Error("CreatePannerNode() ok = true, want false")
	}
	if _, ok := ctx.CreateLegacyPannerNode(); ok {
		t.Error("CreateLegacyPannerNode() ok = true, want false")
	}
	if _, ok := ctx.Listener(); ok {
		t.Error("Listener() ok = true, want false")
	}
	if _, ok := ctx.LegacyListener(); ok {
		t.Error("LegacyListener() ok = true, want false")
	}
	if _, ok := ctx.NewAmbisonicRenderer(); ok {
		t.Error("NewAmbisonicRenderer() ok = true, want false")
	}
}

func TestContext_CreateGainConnectsWithoutError(t *testing.T) {
	ctx := NewContext()
	gain := ctx.CreateGain()
	gain.Gain().SetValueAtTime(0.5, 0)
	gain.Connect(ctx.Destination())
	gain.Disconnect()
}

func TestContext_CreateSourceFromStreamAndElement(t *testing.T) {
	ctx := NewContext()

	src, err := ctx.CreateSourceFromStream(nil)
	if err != nil {
		t.Fatalf("CreateSourceFromStream: %v", err)
	}
	if err := src.Play(); err != nil {
		t.Errorf("Play: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}

	elemSrc, err := ctx.CreateSourceFromElement(nil)
	if err != nil {
		t.Fatalf("CreateSourceFromElement: %v", err)
	}
	if elemSrc == nil {
		t.Fatal("CreateSourceFromElement returned nil node")
	}
}
