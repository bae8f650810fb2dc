// Command learner is a terminal client for the CertifyTrack API. It signs in, loads the learning
// page for one batch and prints the schedule, or verifies a certificate without signing in.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/certifytrack-backend/internal/cache"
	"github.com/yungbote/certifytrack-backend/internal/client"
	"github.com/yungbote/certifytrack-backend/internal/pages"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

func main() {
	var (
		baseURL   = flag.String("api", envOr("CERTIFYTRACK_API", "http://localhost:8080"), "API base url")
		email     = flag.String("email", os.Getenv("CERTIFYTRACK_EMAIL"), "login email")
		password  = flag.String("password", os.Getenv("CERTIFYTRACK_PASSWORD"), "login password")
		batchFlag = flag.String("batch", "", "batch id")
		userFlag  = flag.String("user", "", "user id, with -verify")
		verify    = flag.Bool("verify", false, "verify the certificate of -user in -batch")
		redisAddr = flag.String("redis", os.Getenv("REDIS_ADDR"), "optional redis address for the session cache")
		logMode   = flag.String("log", envOr("LOG_MODE", "development"), "log mode")
	)
	flag.Parse()

	log, err := logger.New(*logMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	batchID, err := uuid.Parse(strings.TrimSpace(*batchFlag))
	if err != nil {
		fmt.Fprintln(os.Stderr, "-batch must be a valid id")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	api, err := client.New(log, client.Config{BaseURL: *baseURL, MaxRetries: 2})
	if err != nil {
		log.Fatal("Init api client failed", "error", err)
	}

	if *verify {
		userID, err := uuid.Parse(strings.TrimSpace(*userFlag))
		if err != nil {
			fmt.Fprintln(os.Stderr, "-user must be a valid id")
			os.Exit(2)
		}
		os.Exit(runVerify(ctx, log, api, batchID, userID))
	}
	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "-email and -password are required")
		os.Exit(2)
	}
	os.Exit(runLearning(ctx, log, api, *email, *password, batchID, *redisAddr))
}

func runVerify(ctx context.Context, log *logger.Logger, api *client.Client, batchID, userID uuid.UUID) int {
	notes := &client.RecordingNotifier{}
	v := client.NewFallback(log, api, notes).Verification(ctx, batchID, userID)
	for _, m := range notes.Messages() {
		fmt.Fprintln(os.Stderr, m)
	}
	if v == nil || !v.IsValid || v.Certificate == nil {
		progress := 0
		if v != nil {
			progress = v.Progress
		}
		fmt.Printf("not valid (progress %d%%)\n", progress)
		return 1
	}
	c := v.Certificate
	fmt.Printf("valid: %s completed %s on %s (certificate %s)\n",
		c.RecipientName, c.CourseName, c.IssueDate.Format("2006-01-02"), c.ID)
	return 0
}

func runLearning(ctx context.Context, log *logger.Logger, api *client.Client, email, password string, batchID uuid.UUID, redisAddr string) int {
	auth, err := api.Login(ctx, email, password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		return 1
	}
	api.SetToken(auth.AccessToken)

	var store cache.Store = cache.NewMemoryStore()
	if redisAddr != "" {
		rs, err := cache.NewRedisStore(log, cache.RedisConfig{Addr: redisAddr, TTL: 24 * time.Hour})
		if err != nil {
			log.Warn("Redis cache unavailable; using memory", "error", err)
		} else {
			defer rs.Close()
			store = rs
		}
	}
	rt := cache.NewReadThrough[pages.LearningView](log, store, cache.Options{})
	defer rt.Wait()

	page := pages.NewLearningPage(log, api, pages.LearningConfig{
		BatchID: batchID,
		UserID:  auth.User.ID,
		Cache:   rt,
	})
	defer page.Unmount()

	st := page.Load(ctx)
	switch st.Status {
	case pages.StatusRedirect:
		fmt.Fprintf(os.Stderr, "redirected to %s: %v\n", st.Redirect, st.Err)
		return 1
	case pages.StatusError:
		fmt.Fprintf(os.Stderr, "load failed: %v\n", st.Err)
		return 1
	}
	printLearning(st.Data)
	return 0
}

func printLearning(v *pages.LearningView) {
	if v == nil || v.Batch == nil {
		return
	}
	fmt.Printf("%s (%s)\n", v.Batch.Title, v.Batch.CourseName)
	s := v.Schedule
	switch {
	case !s.Started:
		fmt.Printf("starts %s\n", v.Batch.StartDate.Format("2006-01-02"))
	case s.Finished:
		fmt.Printf("finished %s\n", s.EndDate.Format("2006-01-02"))
	default:
		fmt.Printf("day %d, %d days left\n", s.CurrentDay, s.RemainingDays)
	}
	fmt.Printf("progress %d/%d (%d%%)\n\n", v.Progress.CompletedCount, v.Progress.TotalCount, v.Progress.Percentage)

	for _, d := range v.Days {
		fmt.Printf("Day %d\n", d.DayNumber)
		if !d.HasContent() {
			fmt.Println("  (no tasks yet)")
			continue
		}
		for _, t := range d.Tasks {
			mark := " "
			if v.Completed(t.ID) {
				mark = "x"
			}
			line := fmt.Sprintf("  [%s] %s", mark, t.Title)
			if sub := v.Submissions[t.ID]; sub != nil {
				line += fmt.Sprintf(" (submission %s)", sub.Status)
			}
			fmt.Println(line)
		}
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
