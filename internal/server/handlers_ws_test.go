package server

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/deckpulse/internal/domain"
)

func dialExpectingRejection(t *testing.T, ts *httptest.Server, path string) int {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http://", "ws://", 1) + path
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()

	return resp.StatusCode
}

func collectVotes(t *testing.T, conn *websocket.Conn, want int) []domain.CastVote {
	t.Helper()

	var votes []domain.CastVote
	for len(votes) < want {
		msg := readMessageOfType(t, conn, "votes")
		require.NotEmpty(t, msg.Votes, "vote batches must never be empty")
		votes = append(votes, msg.Votes...)
	}
	require.Len(t, votes, want)
	return votes
}

func TestViewerSocket_ReceivesInitialState(t *testing.T) {
	ts, _ := startTestServer(t, newTestConfig())

	viewer := dialSocket(t, ts, "/ws/viewer")
	init := readInitialState(t, viewer)

	require.Contains(t, init, "slide")
	require.Contains(t, init, "questions")
	require.Contains(t, init, "population")

	assert.Equal(t, domain.SlideState{Slide: 0, Step: 0}, *init["slide"].Slide)
	assert.Empty(t, init["questions"].Questions)
	assert.Equal(t, 1, *init["population"].Population)
}

func TestPresenterSocket_DrivesSlides(t *testing.T) {
	ts, _ := startTestServer(t, newTestConfig())

	presenter := dialSocket(t, ts, "/ws/presenter")
	readInitialState(t, presenter)
	viewer := dialSocket(t, ts, "/ws/viewer")
	readInitialState(t, viewer)

	sendJSON(t, presenter, `{"type":"next_slide"}`)

	msg := readMessageOfType(t, viewer, "slide")
	assert.Equal(t, domain.SlideState{Slide: 1, Step: 0}, *msg.Slide)

	sendJSON(t, presenter, `{"type":"next_step"}`)

	msg = readMessageOfType(t, viewer, "slide")
	assert.Equal(t, domain.SlideState{Slide: 1, Step: 1}, *msg.Slide)

	sendJSON(t, presenter, `{"type":"prev_slide"}`)

	msg = readMessageOfType(t, viewer, "slide")
	assert.Equal(t, domain.SlideState{Slide: 0, Step: 0}, *msg.Slide)
}

func TestViewerSocket_AskQuestionBroadcasts(t *testing.T) {
	ts, _ := startTestServer(t, newTestConfig())

	presenter := dialSocket(t, ts, "/ws/presenter")
	readInitialState(t, presenter)
	viewer := dialSocket(t, ts, "/ws/viewer")
	readInitialState(t, viewer)

	sendJSON(t, viewer, `{"type":"ask","text":"Why Go?","slide":3}`)

	msg := readMessageOfType(t, presenter, "questions")
	require.Len(t, msg.Questions, 1)
	assert.Equal(t, "Why Go?", msg.Questions[0].Text)
	assert.Equal(t, 3, msg.Questions[0].Slide)
	assert.False(t, msg.Questions[0].Answered)

	// The asker sees the broadcast as well.
	msg = readMessageOfType(t, viewer, "questions")
	require.Len(t, msg.Questions, 1)
	assert.Equal(t, "Why Go?", msg.Questions[0].Text)
}

func TestPresenterSocket_TogglesQuestion(t *testing.T) {
	ts, _ := startTestServer(t, newTestConfig())

	presenter := dialSocket(t, ts, "/ws/presenter")
	readInitialState(t, presenter)
	viewer := dialSocket(t, ts, "/ws/viewer")
	readInitialState(t, viewer)

	sendJSON(t, viewer, `{"type":"ask","text":"Is this answered?"}`)
	msg := readMessageOfType(t, viewer, "questions")
	require.Len(t, msg.Questions, 1)
	questionID := msg.Questions[0].ID

	sendJSON(t, presenter, fmt.Sprintf(`{"type":"toggle_question","id":%d}`, questionID))

	msg = readMessageOfType(t, viewer, "questions")
	require.Len(t, msg.Questions, 1)
	assert.True(t, msg.Questions[0].Answered)
}

func TestVotesStreamToPresenterInBatches(t *testing.T) {
	ts, _ := startTestServer(t, newTestConfig())

	presenter := dialSocket(t, ts, "/ws/presenter")
	readInitialState(t, presenter)
	viewer := dialSocket(t, ts, "/ws/viewer")
	readInitialState(t, viewer)

	for i := 0; i < 3; i++ {
		sendJSON(t, viewer, fmt.Sprintf(`{"type":"vote","topic":"language","choice":"choice-%d"}`, i))
	}

	votes := collectVotes(t, presenter, 3)
	for i, vote := range votes {
		assert.Equal(t, "language", vote.Topic)
		assert.Equal(t, fmt.Sprintf("choice-%d", i), vote.Choice)
		assert.NotEmpty(t, vote.User)
	}
	assert.Equal(t, votes[0].User, votes[1].User)
}

func TestVoteBatchCountTrigger(t *testing.T) {
	cfg := newTestConfig()
	cfg.VoteBatchSize = 2
	cfg.VoteBatchWindow = 10 * time.Second
	ts, _ := startTestServer(t, cfg)

	presenter := dialSocket(t, ts, "/ws/presenter")
	readInitialState(t, presenter)
	viewer := dialSocket(t, ts, "/ws/viewer")
	readInitialState(t, viewer)

	for i := 0; i < 4; i++ {
		sendJSON(t, viewer, fmt.Sprintf(`{"type":"vote","topic":"t","choice":"c%d"}`, i))
	}

	// The window is far away, so only the count trigger can emit these.
	first := readMessageOfType(t, presenter, "votes")
	require.Len(t, first.Votes, 2)
	assert.Equal(t, "c0", first.Votes[0].Choice)
	assert.Equal(t, "c1", first.Votes[1].Choice)

	second := readMessageOfType(t, presenter, "votes")
	require.Len(t, second.Votes, 2)
	assert.Equal(t, "c2", second.Votes[0].Choice)
	assert.Equal(t, "c3", second.Votes[1].Choice)
}

func TestViewerSocket_NeverReceivesVotes(t *testing.T) {
	ts, _ := startTestServer(t, newTestConfig())

	presenter := dialSocket(t, ts, "/ws/presenter")
	readInitialState(t, presenter)
	viewer := dialSocket(t, ts, "/ws/viewer")
	readInitialState(t, viewer)

	sendJSON(t, viewer, `{"type":"vote","topic":"language","choice":"go"}`)
	collectVotes(t, presenter, 1)

	// The batch reached the presenter, so the viewer would have it by now.
	require.NoError(t, viewer.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	for {
		_, data, err := viewer.ReadMessage()
		if err != nil {
			break
		}
		assert.NotContains(t, string(data), `"type":"votes"`)
	}
}

func TestViewerSocket_AdminCommandsIgnored(t *testing.T) {
	ts, _ := startTestServer(t, newTestConfig())

	viewer := dialSocket(t, ts, "/ws/viewer")
	readInitialState(t, viewer)

	sendJSON(t, viewer, `{"type":"next_slide"}`)

	// A follow-up question proves the earlier frame was processed.
	sendJSON(t, viewer, `{"type":"ask","text":"still here?"}`)
	readMessageOfType(t, viewer, "questions")

	state := fetchState(t, ts.URL)
	assert.Equal(t, domain.SlideState{Slide: 0, Step: 0}, state.Slide)
}

func TestSocketSurvivesMalformedMessages(t *testing.T) {
	ts, _ := startTestServer(t, newTestConfig())

	viewer := dialSocket(t, ts, "/ws/viewer")
	readInitialState(t, viewer)

	sendJSON(t, viewer, `not json`)
	sendJSON(t, viewer, `{"type":"bogus"}`)
	sendJSON(t, viewer, `{"type":"ask","text":"   "}`)
	sendJSON(t, viewer, `{"type":"vote","topic":"incomplete"}`)
	sendJSON(t, viewer, `{"type":"ask","text":"still alive"}`)

	msg := readMessageOfType(t, viewer, "questions")
	require.Len(t, msg.Questions, 1)
	assert.Equal(t, "still alive", msg.Questions[0].Text)
}

func TestPopulationTracksViewers(t *testing.T) {
	ts, _ := startTestServer(t, newTestConfig())

	viewer1 := dialSocket(t, ts, "/ws/viewer")
	init := readInitialState(t, viewer1)
	require.Equal(t, 1, *init["population"].Population)

	viewer2 := dialSocket(t, ts, "/ws/viewer")
	readInitialState(t, viewer2)

	msg := readMessageOfType(t, viewer1, "population")
	assert.Equal(t, 2, *msg.Population)

	require.NoError(t, viewer2.Close())

	msg = readMessageOfType(t, viewer1, "population")
	assert.Equal(t, 1, *msg.Population)
}

func TestPresenterSocket_DoesNotJoinPopulation(t *testing.T) {
	ts, _ := startTestServer(t, newTestConfig())

	presenter := dialSocket(t, ts, "/ws/presenter")
	init := readInitialState(t, presenter)
	require.Equal(t, 0, *init["population"].Population)

	dialSocket(t, ts, "/ws/viewer")

	msg := readMessageOfType(t, presenter, "population")
	assert.Equal(t, 1, *msg.Population)
}

func TestRESTCommandsReachSockets(t *testing.T) {
	ts, _ := startTestServer(t, newTestConfig())

	viewer := dialSocket(t, ts, "/ws/viewer")
	readInitialState(t, viewer)

	postCommand(t, ts.URL+"/api/slides/next")

	msg := readMessageOfType(t, viewer, "slide")
	assert.Equal(t, domain.SlideState{Slide: 1, Step: 0}, *msg.Slide)
}

func TestGlobalConnectionLimit(t *testing.T) {
	cfg := newTestConfig()
	cfg.MaxConnections = 2
	ts, _ := startTestServer(t, cfg)

	dialSocket(t, ts, "/ws/viewer")
	dialSocket(t, ts, "/ws/viewer")

	status := dialExpectingRejection(t, ts, "/ws/viewer")
	assert.Equal(t, 503, status)
}

func TestPerIPConnectionLimit(t *testing.T) {
	cfg := newTestConfig()
	cfg.MaxConnectionsPerIP = 1
	ts, _ := startTestServer(t, cfg)

	dialSocket(t, ts, "/ws/viewer")

	status := dialExpectingRejection(t, ts, "/ws/viewer")
	assert.Equal(t, 429, status)
}

func TestDialRateLimit(t *testing.T) {
	cfg := newTestConfig()
	cfg.ConnectRatePerIP = 1
	cfg.ConnectBurstPerIP = 2
	ts, _ := startTestServer(t, cfg)

	dialSocket(t, ts, "/ws/viewer")
	dialSocket(t, ts, "/ws/viewer")

	status := dialExpectingRejection(t, ts, "/ws/viewer")
	assert.Equal(t, 429, status)
}

func TestHubStopClosesSocketsGracefully(t *testing.T) {
	ts, h := startTestServer(t, newTestConfig())

	viewer := dialSocket(t, ts, "/ws/viewer")
	readInitialState(t, viewer)

	h.Stop()

	require.NoError(t, viewer.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, _, err := viewer.ReadMessage()
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
			return
		}
	}
}
