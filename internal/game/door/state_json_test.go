package door

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_JSONRoundTripKeepsPrize(t *testing.T) {
	e := newScriptedEngine(1)

	s, err := e.NewRound(ClassicConfig())
	require.NoError(t, err)
	s, err = e.ChoosePrimaryDoor(s, 1)
	require.NoError(t, err)
	s, err = e.Decide(s, Stay())
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"prize_door":1`)

	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s, decoded)

	_, ok := decoded.PrizeDoor()
	assert.False(t, ok, "prize stays hidden until resolved")

	direct, err := e.Resolve(s, 1)
	require.NoError(t, err)
	resumed, err := e.Resolve(decoded, 1)
	require.NoError(t, err)
	assert.Equal(t, ResultWin, direct.Result)
	assert.Equal(t, direct.Result, resumed.Result)
}

func TestState_DecodedWithoutPrizeIsRejected(t *testing.T) {
	e := newScriptedEngine(2)

	s, err := e.NewRound(ClassicConfig())
	require.NoError(t, err)
	s, err = e.ChoosePrimaryDoor(s, 1)
	require.NoError(t, err)
	s, err = e.Decide(s, Stay())
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	delete(fields, "prize_door")
	data, err = json.Marshal(fields)
	require.NoError(t, err)

	var stripped State
	require.NoError(t, json.Unmarshal(data, &stripped))

	_, err = e.Resolve(stripped, 1)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestEngine_HandBuiltStateIsRejected(t *testing.T) {
	e := newScriptedEngine()

	s := State{
		Config: ClassicConfig(),
		Stage:  StageAwaitingInitialPick,
		Doors:  []Door{{Number: 1}, {Number: 2}, {Number: 3}},
	}
	_, err := e.ChoosePrimaryDoor(s, 1)
	assert.ErrorIs(t, err, ErrInvalidState)
}
