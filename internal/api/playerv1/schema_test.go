package playerv1_test

import (
	"os"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	playerv1 "github.com/osa030/slokabox/internal/api/playerv1"
	"github.com/osa030/slokabox/internal/api/playerv1/playerv1connect"
)

const schemaPath = "../../../proto/slokabox/player/v1/player.proto"

var (
	messageRe = regexp.MustCompile(`(?ms)^message (\w+) \{(.*?)\}`)
	fieldRe   = regexp.MustCompile(`(?m)^\s*(?:repeated\s+)?[\w.]+\s+(\w+)\s*=\s*\d+;`)
	rpcRe     = regexp.MustCompile(`rpc (\w+)\(`)
)

func readSchema(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(schemaPath)
	require.NoError(t, err)
	return string(data)
}

func lowerCamel(name string) string {
	parts := strings.Split(name, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

func jsonNames(v any) []string {
	typ := reflect.TypeOf(v)
	names := []string{}
	for i := 0; i < typ.NumField(); i++ {
		tag := strings.Split(typ.Field(i).Tag.Get("json"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}
		names = append(names, tag)
	}
	sort.Strings(names)
	return names
}

func TestSchema_MessagesMatchStructs(t *testing.T) {
	structs := map[string]any{
		"VerseRef":                  playerv1.VerseRef{},
		"PlayerState":               playerv1.PlayerState{},
		"EngineCommand":             playerv1.EngineCommand{},
		"PlayerUpdate":              playerv1.PlayerUpdate{},
		"OpenRequest":               playerv1.OpenRequest{},
		"OpenResponse":              playerv1.OpenResponse{},
		"PlayerRequest":             playerv1.PlayerRequest{},
		"SelectRequest":             playerv1.SelectRequest{},
		"SetPlayingRequest":         playerv1.SetPlayingRequest{},
		"SetSpeedRequest":           playerv1.SetSpeedRequest{},
		"SeekRequest":               playerv1.SeekRequest{},
		"StateResponse":             playerv1.StateResponse{},
		"CloseResponse":             playerv1.CloseResponse{},
		"ReportEngineEventRequest":  playerv1.ReportEngineEventRequest{},
		"ReportEngineEventResponse": playerv1.ReportEngineEventResponse{},
		"SubscribeRequest":          playerv1.SubscribeRequest{},
	}

	matches := messageRe.FindAllStringSubmatch(readSchema(t), -1)
	require.Len(t, matches, len(structs))

	for _, m := range matches {
		name, body := m[1], m[2]
		t.Run(name, func(t *testing.T) {
			v, ok := structs[name]
			require.True(t, ok, "no Go type for message %s", name)

			fields := []string{}
			for _, f := range fieldRe.FindAllStringSubmatch(body, -1) {
				fields = append(fields, lowerCamel(f[1]))
			}
			sort.Strings(fields)
			assert.Equal(t, fields, jsonNames(v))
		})
	}
}

func TestSchema_ServiceMatchesProcedures(t *testing.T) {
	procedures := []string{
		playerv1connect.PlayerServiceOpenProcedure,
		playerv1connect.PlayerServiceCloseProcedure,
		playerv1connect.PlayerServiceSelectProcedure,
		playerv1connect.PlayerServiceTogglePlayProcedure,
		playerv1connect.PlayerServiceSetPlayingProcedure,
		playerv1connect.PlayerServiceToggleLoopProcedure,
		playerv1connect.PlayerServiceSetSpeedProcedure,
		playerv1connect.PlayerServiceCycleSpeedProcedure,
		playerv1connect.PlayerServiceSeekProcedure,
		playerv1connect.PlayerServiceGetStateProcedure,
		playerv1connect.PlayerServiceReportEngineEventProcedure,
		playerv1connect.PlayerServiceSubscribeProcedure,
	}

	var fromSchema []string
	for _, m := range rpcRe.FindAllStringSubmatch(readSchema(t), -1) {
		fromSchema = append(fromSchema, "/slokabox.player.v1.PlayerService/"+m[1])
	}
	assert.ElementsMatch(t, procedures, fromSchema)
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := playerv1.Codec{}
	assert.Equal(t, "json", codec.Name())

	in := &playerv1.PlayerUpdate{
		SequenceNo: 7,
		PlayerID:   "p1",
		Kind:       playerv1.UpdateKindCommand,
		Command:    &playerv1.EngineCommand{Generation: 3, Op: playerv1.CommandLoad, URL: "https://audio.example.com/1.mp3"},
	}
	data, err := codec.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sequenceNo":7`)

	var out playerv1.PlayerUpdate
	require.NoError(t, codec.Unmarshal(data, &out))
	assert.Equal(t, *in, out)

	// An empty body decodes to the zero message.
	var empty playerv1.PlayerRequest
	require.NoError(t, codec.Unmarshal(nil, &empty))
	assert.Empty(t, empty.PlayerID)

	assert.Error(t, codec.Unmarshal([]byte("{"), &out))
}
