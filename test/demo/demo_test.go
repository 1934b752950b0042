//go:build integration_test

package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/victornm/grammarquiz/internal/api"
	"github.com/victornm/grammarquiz/internal/domain"
	"github.com/victornm/grammarquiz/internal/report"
)

const (
	httpAddr = "http://localhost:8080"
	grpcAddr = "localhost:9090"
	prefix   = "grammarquiz"
)

func TestQuiz(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	checkHealth(ctx, t)

	var (
		wg    = new(sync.WaitGroup)
		users = []string{"u1", "u2", "u3"}
	)

	// Prepare Redis subscribers
	rc := makeRedis(t)
	subscribeStats(t, rc, wg)
	for _, u := range users {
		subscribeAsStudent(t, rc, wg, email(u))
	}

	// Every user takes a quiz and reports it concurrently
	var eg errgroup.Group
	for _, u := range users {
		eg.Go(func() error {
			var started api.StartQuizResponse
			if err := call(ctx, http.MethodPost, "/api/quiz/start", nil, &started); err != nil {
				return fmt.Errorf("user %q start quiz: %w", u, err)
			}

			answers := make([]api.SubmissionAnswer, 0, len(started.Questions))
			for _, q := range started.Questions {
				a := q.Answers[rand.IntN(len(q.Answers))]
				answers = append(answers, api.SubmissionAnswer{QuestionID: q.ID, SelectedAnswerID: a.ID})
			}

			var result api.QuizResult
			if err := call(ctx, http.MethodPost, "/api/quiz/submit", api.SubmitQuizRequest{
				SessionID: started.SessionID,
				Answers:   answers,
			}, &result); err != nil {
				return fmt.Errorf("user %q submit quiz: %w", u, err)
			}
			t.Logf("User %q scored %d/%d (%d%%)", u, result.Score, result.TotalQuestions, result.Percentage)

			var plan api.StudyPlanResponse
			if err := call(ctx, http.MethodGet, "/api/results/"+started.SessionID+"/study-plan", nil, &plan); err != nil {
				return fmt.Errorf("user %q study plan: %w", u, err)
			}
			t.Logf("User %q study plan (%s):\n%s", u, plan.ShareLink, plan.Summary)

			var rep api.SubmitReportResponse
			if err := call(ctx, http.MethodPost, "/api/reports", api.SubmitReportRequest{
				SessionID: started.SessionID,
				Student:   report.Student{Name: u, Email: email(u)},
			}, &rep); err != nil {
				return fmt.Errorf("user %q submit report: %w", u, err)
			}
			t.Logf("User %q report %s notified=%t", u, rep.AttemptID, rep.Notified)
			return nil
		})
	}

	require.NoError(t, eg.Wait())

	time.Sleep(2 * time.Second)
	wg.Wait()
}

func checkHealth(ctx context.Context, t *testing.T) {
	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func call(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, httpAddr+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, e.Error)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// runID keeps student emails unique per run so earlier unsubscribes do not mute notifications.
var runID = uuid.NewString()[:8]

func email(u string) string {
	return fmt.Sprintf("%s+%s@example.com", u, runID)
}

func subscribeStats(t *testing.T, rc redis.UniversalClient, wg *sync.WaitGroup) {
	wg.Add(1)
	sub := subscribeRedis(t, rc, fmt.Sprintf("%s:stats", prefix))
	go func() {
		defer wg.Done()

		for msg := range sub {
			n, ok := decodeNotification(t, msg)
			if !ok || n.Event != domain.EventNameTopicStats {
				continue
			}

			var st api.TopicStats
			if err := json.Unmarshal(n.Data, &st); err != nil {
				t.Logf("unmarshal topic stats: %v", err)
				continue
			}

			t.Logf("topic stats:\n%s", formatTopicStats(st))
		}
	}()
}

func subscribeAsStudent(t *testing.T, rc redis.UniversalClient, wg *sync.WaitGroup, email string) {
	wg.Add(1)
	sub := subscribeRedis(t, rc, fmt.Sprintf("%s:student:%s", prefix, email))
	go func() {
		defer wg.Done()

		for msg := range sub {
			n, ok := decodeNotification(t, msg)
			if !ok {
				continue
			}

			var p report.Payload
			if err := json.Unmarshal(n.Data, &p); err != nil {
				t.Logf("unmarshal report: %v", err)
				continue
			}

			t.Logf("%s report: score=%d/%d cefr=%s weak=%d", email, p.Score.Total, p.Score.Max, p.Score.CEFR, len(p.WeakTopics))
		}
	}()
}

type notification struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func decodeNotification(t *testing.T, msg *redis.Message) (notification, bool) {
	var n notification
	if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
		t.Logf("unmarshal notification: %v", err)
		return n, false
	}
	return n, true
}

func subscribeRedis(t *testing.T, rc redis.UniversalClient, channel string) <-chan *redis.Message {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	sub := rc.Subscribe(ctx, channel)
	t.Cleanup(func() { sub.Close() })

	if _, err := sub.Receive(ctx); err != nil {
		t.Fatal(err)
	}

	c := make(chan *redis.Message)
	go func() {
		defer close(c)

		for {
			msg, err := sub.ReceiveMessage(ctx)
			if err != nil {
				t.Log(err)
				return
			}

			c <- msg
		}
	}()

	return c
}

func makeRedis(t *testing.T) redis.UniversalClient {
	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{"localhost:6379"},
	})
	t.Cleanup(func() { r.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.Ping(ctx).Err(); err != nil {
		t.Fatal(err)
	}

	return r
}

func formatTopicStats(st api.TopicStats) string {
	var s string
	for _, e := range st.Topics {
		s += fmt.Sprintf("%s: %d/%d wrong\n", e.TopicName, e.ErrorCount, e.TotalAttempted)
	}
	return s
}
