package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IsbatBInHossain/chess-game-server/internal/model"
)

func TestDecodeVariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Message
	}{
		{"auth", `{"type":"auth","token":"abc"}`, AuthMessage{Token: "abc"}},
		{"find_match", `{"type":"find_match"}`, FindMatchMessage{}},
		{
			"move",
			`{"type":"move","sessionId":"12","move":{"from":"e2","to":"e4"}}`,
			MoveMessage{SessionID: "12", Move: model.MoveInput{From: "e2", To: "e4"}},
		},
		{
			"promotion",
			`{"type":"move","sessionId":"g3","move":{"from":"e7","to":"e8","promotion":"q"}}`,
			MoveMessage{SessionID: "g3", Move: model.MoveInput{From: "e7", To: "e8", Promotion: "q"}},
		},
		{"resign", `{"type":"resign","sessionId":"12"}`, TerminateMessage{SessionID: "12", Reason: model.ReasonResignation}},
		{"abort", `{"type":"abort","sessionId":"g1"}`, TerminateMessage{SessionID: "g1", Reason: model.ReasonAborted}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeEveryTerminationReason(t *testing.T) {
	for _, reason := range model.TerminationReasons() {
		got, err := Decode([]byte(`{"type":"` + string(reason) + `","sessionId":"1"}`))
		require.NoError(t, err)
		assert.Equal(t, string(reason), got.Type())
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedMessage)

	_, err = Decode([]byte(`{}`))
	assert.ErrorIs(t, err, ErrMalformedMessage)

	_, err = Decode([]byte(`{"type":"castle"}`))
	assert.ErrorIs(t, err, ErrUnknownMessage)

	_, err = Decode([]byte(`{"type":"move","move":"e2e4"}`))
	assert.ErrorIs(t, err, ErrMalformedMessage)
}
