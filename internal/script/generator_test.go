package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenes(t *testing.T) {
	t.Run("valid script is renumbered contiguously", func(t *testing.T) {
		raw := `{"scenes":[
			{"scene_number":3,"visuals":"a city","narration":"hello"},
			{"scene_number":3,"visuals":"a robot","narration":"world"},
			{"scene_number":9,"visuals":"a lab","narration":"bye"}
		]}`

		scenes, err := ParseScenes(raw)
		require.NoError(t, err)
		require.Len(t, scenes, 3)

		for i, s := range scenes {
			assert.Equal(t, i+1, s.Number)
		}
		assert.Equal(t, "a city", scenes[0].Visuals)
		assert.Equal(t, "a robot", scenes[1].Visuals)
		assert.Equal(t, "a lab", scenes[2].Visuals)
	})

	t.Run("empty scenes are dropped and order preserved", func(t *testing.T) {
		raw := `{"scenes":[
			{"scene_number":1,"visuals":"first","narration":"one"},
			{"scene_number":2,"visuals":"  ","narration":""},
			{"scene_number":3,"visuals":"third","narration":"three"}
		]}`

		scenes, err := ParseScenes(raw)
		require.NoError(t, err)
		require.Len(t, scenes, 2)
		assert.Equal(t, "first", scenes[0].Visuals)
		assert.Equal(t, 1, scenes[0].Number)
		assert.Equal(t, "third", scenes[1].Visuals)
		assert.Equal(t, 2, scenes[1].Number)
	})

	t.Run("narration-only scene is kept", func(t *testing.T) {
		raw := `{"scenes":[{"scene_number":1,"visuals":"","narration":"voice only"}]}`

		scenes, err := ParseScenes(raw)
		require.NoError(t, err)
		require.Len(t, scenes, 1)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseScenes(`not json`)
		assert.Error(t, err)
	})

	t.Run("no scenes", func(t *testing.T) {
		_, err := ParseScenes(`{"scenes":[]}`)
		assert.Error(t, err)
	})

	t.Run("only empty scenes", func(t *testing.T) {
		_, err := ParseScenes(`{"scenes":[{"scene_number":1,"visuals":"","narration":" "}]}`)
		assert.Error(t, err)
	})
}
