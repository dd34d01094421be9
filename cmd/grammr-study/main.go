// Command grammr-study is a terminal study client for a grammr-srs server.
// It keeps a small queue of cards topped up in the background so the next
// card is always ready.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/grammr/srs/internal/fsrs"
	"github.com/grammr/srs/internal/planner"
	"github.com/grammr/srs/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("grammr-study", pflag.ExitOnError)
	server := flags.String("server", "http://localhost:8080", "grammr-srs server URL")
	user := flags.String("user", "", "user to study as")
	batchSize := flags.Int("batch-size", session.DefaultBatchSize, "cards per fetch")
	threshold := flags.Int("threshold", session.DefaultRefillThreshold, "queue length that triggers a refill")
	flags.Parse(os.Args[1:])

	if *user == "" {
		return fmt.Errorf("--user is required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client := &apiClient{
		base:   strings.TrimRight(*server, "/"),
		userID: *user,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
	runner := session.NewRunner(client, *batchSize, *threshold, logger)

	ctx := context.Background()
	if err := runner.Start(ctx); err != nil {
		return err
	}

	stdin := bufio.NewScanner(os.Stdin)
	for {
		item, ok := runner.Current(ctx)
		if !ok {
			progress := runner.Progress()
			fmt.Printf("\nSession complete: %d cards reviewed.\n", progress.Reviewed)
			if !runner.Queue().HasMore() {
				return nil
			}
			fmt.Print("Study more? [y/N] ")
			if !stdin.Scan() || strings.ToLower(strings.TrimSpace(stdin.Text())) != "y" {
				return nil
			}
			if err := runner.StudyMore(ctx); err != nil {
				return err
			}
			continue
		}

		progress := runner.Progress()
		fmt.Printf("\n[%d/%d] %s\n", progress.Reviewed+1, progress.Total, item.Card.Flashcard.Front)
		fmt.Print("(enter to reveal, q to quit) ")
		if !stdin.Scan() {
			return nil
		}
		if strings.TrimSpace(stdin.Text()) == "q" {
			return nil
		}

		fmt.Println("  →", item.Card.Flashcard.Translation)
		if notes := item.Card.Flashcard.Notes; notes != "" {
			fmt.Println("  ", notes)
		}
		for _, option := range item.SchedulingOptions {
			fmt.Printf("  %d) %-5s %s\n", int(option.Rating), option.Rating, option.NextReviewInterval)
		}

		rating, quit := readRating(stdin)
		if quit {
			return nil
		}
		if err := runner.Review(ctx, rating); err != nil {
			fmt.Fprintln(os.Stderr, "review failed:", err)
		}
	}
}

func readRating(stdin *bufio.Scanner) (fsrs.Rating, bool) {
	for {
		fmt.Print("rating [1-4, q to quit]: ")
		if !stdin.Scan() {
			return 0, true
		}
		switch strings.TrimSpace(stdin.Text()) {
		case "q":
			return 0, true
		case "1":
			return fsrs.Again, false
		case "2":
			return fsrs.Hard, false
		case "3":
			return fsrs.Good, false
		case "4":
			return fsrs.Easy, false
		}
	}
}

// apiClient talks to the grammr-srs HTTP API.
type apiClient struct {
	base   string
	userID string
	http   *http.Client
}

func (c *apiClient) FetchBatch(ctx context.Context, limit int) (*planner.Batch, error) {
	url := fmt.Sprintf("%s/api/v1/study?limit=%d", c.base, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var batch planner.Batch
	if err := c.do(req, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

func (c *apiClient) SubmitReview(ctx context.Context, cardID int64, rating fsrs.Rating) error {
	body, err := json.Marshal(map[string]string{"rating": rating.String()})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v1/study/%d/review", c.base, cardID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *apiClient) do(req *http.Request, out any) error {
	req.Header.Set("X-User-ID", c.userID)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, resp.Status)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
