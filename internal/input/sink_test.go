package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/rere/internal/scancode"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name    string
		dx, dy  int
		maxStep int
		want    [][2]int
	}{
		{"zero", 0, 0, 12, nil},
		{"within one packet", 5, -3, 12, [][2]int{{5, -3}}},
		{"split horizontal", 30, 0, 12, [][2]int{{12, 0}, {12, 0}, {6, 0}}},
		{"uneven axes", -20, 7, 8, [][2]int{{-8, 7}, {-8, 0}, {-4, 0}}},
		{"step floor", 2, 0, 0, [][2]int{{1, 0}, {1, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunk(tt.dx, tt.dy, tt.maxStep)
			assert.Equal(t, tt.want, got)

			var sx, sy int
			for _, p := range got {
				sx += p[0]
				sy += p[1]
			}
			assert.Equal(t, tt.dx, sx)
			assert.Equal(t, tt.dy, sy)
		})
	}
}

func TestClampPacket(t *testing.T) {
	assert.Equal(t, PacketMin, ClampPacket(1))
	assert.Equal(t, 10, ClampPacket(10))
	assert.Equal(t, PacketMax, ClampPacket(500))
}

func TestMoveRelativeChunked(t *testing.T) {
	t.Run("all packets delivered", func(t *testing.T) {
		sink := &mockSink{}
		assert.True(t, MoveRelativeChunked(sink, 25, 0, 12))
		assert.Equal(t, [][2]int{{12, 0}, {12, 0}, {1, 0}}, sink.moves)
	})

	t.Run("stops at first refusal", func(t *testing.T) {
		calls := 0
		sink := &mockSink{MockMoveRelative: func(dx, dy int) bool {
			calls++
			return calls < 2
		}}
		assert.False(t, MoveRelativeChunked(sink, 40, 0, 10))
		assert.Len(t, sink.moves, 2)
	})
}

func TestReleaseAll(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("releases every key and button", func(t *testing.T) {
		sink := &mockSink{}
		ReleaseAll(sink, logger)
		assert.Equal(t, len(scancode.All()), sink.count("key_up"))
		assert.Equal(t, 3, sink.count("button_up"))
	})

	t.Run("survives a panicking sink", func(t *testing.T) {
		sink := &mockSink{MockKeyUp: func(sc scancode.Code) bool {
			if sc == 0x1E {
				panic("boom")
			}
			return sc != 0x1F
		}}
		assert.NotPanics(t, func() { ReleaseAll(sink, logger) })
		assert.Equal(t, len(scancode.All()), sink.count("key_up"))
		assert.Equal(t, 3, sink.count("button_up"))
	})

	t.Run("nil logger", func(t *testing.T) {
		assert.NotPanics(t, func() { ReleaseAll(&mockSink{}, nil) })
	})
}

func TestLogSink(t *testing.T) {
	sink := NewLogSink(zaptest.NewLogger(t))
	assert.True(t, sink.KeyDown(0x1E))
	assert.True(t, sink.KeyUp(0x1E))
	assert.True(t, sink.MoveRelative(3, 4))
	assert.True(t, sink.Scroll(WheelDelta))
	assert.Equal(t, int64(4), sink.Calls())
}
