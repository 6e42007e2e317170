package action

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/syncer/internal/media"
)

// fakePage applies mutations to an in-memory element list.
type fakePage struct {
	session   string
	elements  []media.Element
	mutations []media.Mutation
	listErr   error
	mutateErr error
	panicOn   bool

	// replaceWith swaps the source of the targeted element just before a
	// mutation lands, as a page does when it replaces its player.
	replaceWith string
}

func (p *fakePage) Elements(context.Context) (media.Frame, error) {
	if p.panicOn {
		panic("element vanished")
	}
	if p.listErr != nil {
		return media.Frame{}, p.listErr
	}
	return media.Frame{SessionID: p.session, Elements: append([]media.Element(nil), p.elements...)}, nil
}

func (p *fakePage) Mutate(_ context.Context, index int, src string, m media.Mutation) (media.Frame, error) {
	if p.mutateErr != nil {
		return media.Frame{}, p.mutateErr
	}
	if p.replaceWith != "" {
		p.elements[index].Source = p.replaceWith
	}
	if index < 0 || index >= len(p.elements) || (src != "" && p.elements[index].Source != src) {
		return media.Frame{SessionID: p.session}, nil
	}
	p.mutations = append(p.mutations, m)
	el := &p.elements[index]
	if m.CurrentTime != nil {
		el.CurrentTime = *m.CurrentTime
	}
	if m.Muted != nil {
		el.Muted = *m.Muted
	}
	if m.Paused != nil {
		el.Paused = *m.Paused
	}
	return media.Frame{SessionID: p.session, Elements: []media.Element{*el}}, nil
}

func livePage(currentTime float64) *fakePage {
	return &fakePage{
		session: "1700000000000.5",
		elements: []media.Element{
			{Index: 0, Source: "https://cdn/blank.mp4"},
			{Index: 1, Source: "https://cdn/live.m3u8", Seekable: true, SeekStart: 0, SeekEnd: 100, CurrentTime: currentTime},
		},
	}
}

func TestApply_DetectWithoutPlayer(t *testing.T) {
	e := NewExecutor(&fakePage{session: "s"}, nil)
	snap, err := e.Apply(context.Background(), DetectRequest())
	require.NoError(t, err)
	assert.False(t, snap.Detected)
}

func TestApply_DetectPicksBest(t *testing.T) {
	e := NewExecutor(livePage(90), nil)
	snap, err := e.Apply(context.Background(), DetectRequest())
	require.NoError(t, err)
	assert.True(t, snap.Detected)
	assert.Equal(t, "https://cdn/live.m3u8", snap.SourceURI)
	assert.Equal(t, "1700000000000.5", snap.SessionID)
	assert.InDelta(t, 10, snap.CurrentDelaySeconds, 1e-9)
	assert.InDelta(t, 100, snap.SeekWindowSeconds, 1e-9)
}

func TestApply_NoPlayer(t *testing.T) {
	e := NewExecutor(&fakePage{}, nil)
	for _, kind := range []Kind{Play, Pause, Mute, Resume, GoLive, Nudge, SetDelay} {
		_, err := e.Apply(context.Background(), Request{Kind: kind})
		assert.ErrorIs(t, err, media.ErrNoPlayer, kind.String())
	}
}

func TestApply_NotSeekable(t *testing.T) {
	page := &fakePage{elements: []media.Element{{Index: 0, Source: "radio.mp3"}}}
	e := NewExecutor(page, nil)
	for _, kind := range []Kind{GoLive, Nudge, SetDelay} {
		_, err := e.Apply(context.Background(), Request{Kind: kind, DeltaSeconds: 1})
		assert.ErrorIs(t, err, media.ErrNotSeekable, kind.String())
	}
	_, err := e.Apply(context.Background(), Request{Kind: Pause})
	assert.NoError(t, err)
	assert.Len(t, page.mutations, 1)
}

func TestApply_UnsupportedAction(t *testing.T) {
	e := NewExecutor(livePage(90), nil)
	_, err := e.Apply(context.Background(), Request{Kind: Kind(42)})
	assert.ErrorIs(t, err, media.ErrUnsupportedAction)
}

func TestApply_NudgeScenario(t *testing.T) {
	page := livePage(90)
	e := NewExecutor(page, nil)

	snap, err := e.Apply(context.Background(), NudgeRequest(5))
	require.NoError(t, err)
	assert.InDelta(t, 15, snap.CurrentDelaySeconds, 1e-9)
	assert.InDelta(t, 85, page.elements[1].CurrentTime, 1e-9)
}

func TestApply_NudgeClampsToLiveEdgeBuffer(t *testing.T) {
	page := livePage(98)
	e := NewExecutor(page, nil)

	snap, err := e.Apply(context.Background(), NudgeRequest(-1000))
	require.NoError(t, err)
	assert.InDelta(t, DefaultLiveEdgeBuffer, snap.CurrentDelaySeconds, 1e-9)
	assert.InDelta(t, 99.5, page.elements[1].CurrentTime, 1e-9)
}

func TestApply_NudgeClampsToWindow(t *testing.T) {
	page := livePage(90)
	e := NewExecutor(page, nil, WithLiveEdgeBuffer(0))

	snap, err := e.Apply(context.Background(), NudgeRequest(500))
	require.NoError(t, err)
	assert.InDelta(t, 100, snap.CurrentDelaySeconds, 1e-9)
	assert.InDelta(t, 0, page.elements[1].CurrentTime, 1e-9)
}

func TestApply_NudgeZeroKeepsPosition(t *testing.T) {
	page := livePage(90)
	e := NewExecutor(page, nil)
	snap, err := e.Apply(context.Background(), NudgeRequest(0))
	require.NoError(t, err)
	assert.InDelta(t, 10, snap.CurrentDelaySeconds, 1e-9)
}

func TestApply_GoLiveAndSetDelay(t *testing.T) {
	page := livePage(40)
	e := NewExecutor(page, nil)

	snap, err := e.Apply(context.Background(), Request{Kind: GoLive})
	require.NoError(t, err)
	assert.Zero(t, snap.CurrentDelaySeconds)

	snap, err = e.Apply(context.Background(), SetDelayRequest(30))
	require.NoError(t, err)
	assert.InDelta(t, 30, snap.CurrentDelaySeconds, 1e-9)

	snap, err = e.Apply(context.Background(), SetDelayRequest(-4))
	require.NoError(t, err)
	assert.Zero(t, snap.CurrentDelaySeconds)

	_, err = e.Apply(context.Background(), SetDelayRequest(1000))
	require.NoError(t, err)
	assert.Zero(t, page.elements[1].CurrentTime)
}

func TestApply_ResumeRewindsBeforeUnmuting(t *testing.T) {
	page := livePage(100)
	page.elements[1].Muted = true
	e := NewExecutor(page, nil)

	snap, err := e.Apply(context.Background(), ResumeRequest(2))
	require.NoError(t, err)
	require.Len(t, page.mutations, 1)
	m := page.mutations[0]
	require.NotNil(t, m.CurrentTime)
	assert.InDelta(t, 98, *m.CurrentTime, 1e-9)
	require.NotNil(t, m.Muted)
	assert.False(t, *m.Muted)
	assert.False(t, snap.IsMuted)
	assert.InDelta(t, 2, snap.CurrentDelaySeconds, 1e-9)

	_, err = e.Apply(context.Background(), ResumeRequest(1000))
	require.NoError(t, err)
	assert.Zero(t, page.elements[1].CurrentTime)
}

func TestApply_PlayPauseMute(t *testing.T) {
	page := livePage(90)
	e := NewExecutor(page, nil)

	snap, err := e.Apply(context.Background(), Request{Kind: Pause})
	require.NoError(t, err)
	assert.True(t, snap.IsPaused)

	snap, err = e.Apply(context.Background(), Request{Kind: Play})
	require.NoError(t, err)
	assert.False(t, snap.IsPaused)

	snap, err = e.Apply(context.Background(), Request{Kind: Mute})
	require.NoError(t, err)
	assert.True(t, snap.IsMuted)
	assert.False(t, snap.OnAir())
}

func TestApply_WrapsFaults(t *testing.T) {
	page := livePage(90)
	page.mutateErr = errors.New("element detached")
	e := NewExecutor(page, nil)

	_, err := e.Apply(context.Background(), Request{Kind: GoLive})
	var fault *media.ExecutionFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "goLive", fault.Op)

	page = &fakePage{listErr: media.ErrNoActiveTab}
	_, err = NewExecutor(page, nil).Apply(context.Background(), DetectRequest())
	assert.ErrorIs(t, err, media.ErrNoActiveTab)
	assert.False(t, errors.As(err, &fault))
}

func TestApply_RecoversPanics(t *testing.T) {
	e := NewExecutor(&fakePage{panicOn: true}, nil)
	_, err := e.Apply(context.Background(), DetectRequest())
	var fault *media.ExecutionFault
	require.ErrorAs(t, err, &fault)
	assert.Contains(t, err.Error(), "element vanished")
}

func TestNudgedDelay(t *testing.T) {
	tests := []struct {
		name                         string
		delay, delta, buffer, window float64
		want                         float64
	}{
		{"plain", 10, 5, 0.5, 100, 15},
		{"buffer floor", 2, -1000, 0.5, 100, 0.5},
		{"window ceiling", 90, 50, 0.5, 100, 100},
		{"tiny window", 0.2, -1, 0.5, 0.3, 0.3},
		{"zero buffer", 3, -10, 0, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NudgedDelay(tt.delay, tt.delta, tt.buffer, tt.window), 1e-9)
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "goLive", GoLive.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}

func TestApply_ElementReplacedBeforeMutation(t *testing.T) {
	page := livePage(90)
	page.replaceWith = "https://cdn/preroll.mp4"
	e := NewExecutor(page, nil)

	_, err := e.Apply(context.Background(), NudgeRequest(5))
	assert.ErrorIs(t, err, media.ErrNoPlayer)
	assert.Empty(t, page.mutations)
	assert.InDelta(t, 90, page.elements[1].CurrentTime, 1e-9)
}
