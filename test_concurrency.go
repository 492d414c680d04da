package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const baseURL = "http://localhost:8080"

// Flood script for the recovery endpoints: hammers /recovery/request for
// one email from many goroutines and reports how the server arbitrated.
// With the per-user serialization in place, each burst must yield exactly
// one 200 and reject the rest with OTP_ALREADY_ACTIVE or TOO_MANY_REQUESTS.

// ==============================================
// REQUEST MODELS (Match your API exactly)
// ==============================================

type RequestOTPRequest struct {
	Email string `json:"email"`
	Kind  string `json:"kind,omitempty"`
}

type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after_seconds,omitempty"`
}

// ==============================================
// METRICS
// ==============================================

type Metrics struct {
	totalRequests   int64
	successRequests int64
	alreadyActive   int64
	tooManyRequests int64
	otherRejections int64
	status500       int64
	totalDuration   int64 // in milliseconds
}

var metrics Metrics

// ==============================================
// HELPER FUNCTIONS
// ==============================================

func checkHealth(client *http.Client) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		fmt.Println("❌ Health check failed:", err)
		return false
	}
	defer resp.Body.Close()

	fmt.Printf("✅ Health check passed: %d\n", resp.StatusCode)
	return resp.StatusCode == http.StatusOK
}

func sendRecoveryRequest(client *http.Client, email, tag string) {
	atomic.AddInt64(&metrics.totalRequests, 1)

	data, _ := json.Marshal(RequestOTPRequest{Email: email, Kind: "resend"})
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/recovery/request", bytes.NewBuffer(data))
	if err != nil {
		fmt.Printf("❌ Request creation error: %v\n", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start).Milliseconds()
	atomic.AddInt64(&metrics.totalDuration, duration)

	if err != nil {
		fmt.Printf("❌ Connection error [%s]: %v\n", tag, err)
		return
	}
	defer resp.Body.Close()

	responseBody, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		atomic.AddInt64(&metrics.successRequests, 1)
		fmt.Printf("✅ %s -> 200 OTP ISSUED (%dms)\n", tag, duration)
	case http.StatusBadRequest:
		var errResp ErrorResponse
		_ = json.Unmarshal(responseBody, &errResp)
		switch errResp.Error {
		case "OTP_ALREADY_ACTIVE":
			atomic.AddInt64(&metrics.alreadyActive, 1)
			fmt.Printf("⚠️  %s -> 400 ALREADY ACTIVE, %ds left (%dms)\n", tag, errResp.RetryAfter, duration)
		case "TOO_MANY_REQUESTS":
			atomic.AddInt64(&metrics.tooManyRequests, 1)
			fmt.Printf("⚠️  %s -> 400 THROTTLED, retry in %ds (%dms)\n", tag, errResp.RetryAfter, duration)
		default:
			atomic.AddInt64(&metrics.otherRejections, 1)
			fmt.Printf("⚠️  %s -> 400 %s (%dms)\n", tag, errResp.Error, duration)
		}
	case http.StatusInternalServerError:
		atomic.AddInt64(&metrics.status500, 1)
		fmt.Printf("❌ %s -> 500 SERVER ERROR (%dms): %s\n", tag, duration, string(responseBody))
	default:
		atomic.AddInt64(&metrics.otherRejections, 1)
		fmt.Printf("⚠️  %s -> %d (%dms): %s\n", tag, resp.StatusCode, duration, string(responseBody))
	}
}

func printMetrics() {
	total := atomic.LoadInt64(&metrics.totalRequests)
	success := atomic.LoadInt64(&metrics.successRequests)

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("📊 RECOVERY FLOOD RESULTS")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Total Requests:      %d\n", total)
	fmt.Printf("OTPs Issued:         %d\n", success)
	fmt.Printf("Already Active:      %d\n", atomic.LoadInt64(&metrics.alreadyActive))
	fmt.Printf("Throttled:           %d\n", atomic.LoadInt64(&metrics.tooManyRequests))
	fmt.Printf("Other Rejections:    %d\n", atomic.LoadInt64(&metrics.otherRejections))
	fmt.Printf("500 Server Error:    %d\n", atomic.LoadInt64(&metrics.status500))
	fmt.Println(strings.Repeat("-", 60))
	if total > 0 {
		fmt.Printf("Avg Response Time:   %dms\n", atomic.LoadInt64(&metrics.totalDuration)/total)
	}
	fmt.Println(strings.Repeat("=", 60))

	if success > 1 {
		fmt.Println("\n❌ INVARIANT VIOLATED: more than one OTP issued in a single burst!")
		return
	}
	fmt.Println("\n✅ Invariant held: at most one active OTP per burst")
}

// ==============================================
// MAIN LOAD TEST
// ==============================================

func main() {
	// Configuration
	const concurrency = 25         // concurrent "double-clicks"
	const email = "loadtest@x.edu" // must exist in DB

	runID := uuid.New().String()[:8]
	fmt.Println("🚀 Starting Recovery API Concurrency Flood")
	fmt.Printf("Run %s: %d concurrent requests for %s\n\n", runID, concurrency, email)

	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	// Health check before starting
	fmt.Println("🔍 Running health check...")
	if !checkHealth(client) {
		fmt.Println("❌ Server is not healthy. Aborting load test.")
		os.Exit(1)
	}
	fmt.Println()

	startTime := time.Now()
	var wg sync.WaitGroup

	// One burst: every goroutine fires at the same user at once
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			sendRecoveryRequest(client, email, fmt.Sprintf("REQUEST[%s/Worker%d]", runID, workerID))
		}(i)
	}

	wg.Wait()
	totalTime := time.Since(startTime)

	fmt.Printf("\n⏱️  Total execution time: %v\n", totalTime)
	printMetrics()
}
