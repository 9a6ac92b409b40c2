package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"vidgate/internal/client"
)

func main() {
	var (
		baseFlag     string
		promptFlag   string
		aspectFlag   string
		keyFlag      string
		outFlag      string
		timeoutFlag  time.Duration
		intervalFlag time.Duration
		attemptsFlag int
	)
	flag.StringVar(&baseFlag, "base", "http://localhost:8080", "Gateway base URL")
	flag.StringVar(&promptFlag, "prompt", "", "Text prompt describing the video")
	flag.StringVar(&aspectFlag, "aspect", "", "Aspect ratio, 16:9 or 9:16 (defaults to 16:9)")
	flag.StringVar(&keyFlag, "key", "", "API key override (fallbacks to environment)")
	flag.StringVar(&outFlag, "out", "", "Download the video to this file; prints the URL when empty")
	flag.DurationVar(&timeoutFlag, "timeout", 15*time.Minute, "Overall deadline for the run")
	flag.DurationVar(&intervalFlag, "interval", 10*time.Second, "Delay between status polls")
	flag.IntVar(&attemptsFlag, "attempts", 60, "Maximum number of status polls")
	flag.Parse()

	prompt := strings.TrimSpace(promptFlag)
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "a prompt is required via -prompt")
		os.Exit(1)
	}

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeoutFlag)
	defer cancel()

	c := client.New(client.Options{
		BaseURL:         strings.TrimSpace(baseFlag),
		PollInterval:    intervalFlag,
		MaxPollAttempts: attemptsFlag,
	})
	defer c.Close()

	updates := c.Updates()
	c.Submit(client.Request{Prompt: prompt, AspectRatio: aspectFlag, APIKey: key})

	start := time.Now()
	var res *client.Result
loop:
	for {
		select {
		case u := <-updates:
			switch u.State {
			case client.StateSubmitting:
				fmt.Fprintln(os.Stderr, "state: submitting")
			case client.StatePolling:
				fmt.Fprintf(os.Stderr, "state: polling attempt %d/%d\n", u.Attempt, attemptsFlag)
			case client.StateFailed:
				fmt.Fprintf(os.Stderr, "generation failed: %v\n", u.Err)
				os.Exit(1)
			case client.StateReady:
				res = u.Result
				break loop
			}
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "generation timed out")
			os.Exit(1)
		}
	}
	fmt.Fprintf(os.Stderr, "state: ready after %s\n", time.Since(start).Round(time.Second))

	if outFlag == "" {
		fmt.Println(res.VideoURL)
		return
	}
	n, err := download(ctx, res.VideoURL, outFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "download failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("saved %s (%d bytes)\n", outFlag, n)
}

// download streams the video into a temp file and renames it into place so a
// broken transfer never leaves a half-written target behind.
func download(ctx context.Context, url, out string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return 0, fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp := out + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, resp.Body)
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return 0, err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	return n, os.Rename(tmp, out)
}
