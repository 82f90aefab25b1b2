// Command loadtest drives concurrent deposit and withdrawal flows against a
// running API and then checks every account reconciles with its history.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Scenario is one money flow a worker can run
type Scenario struct {
	Name     string
	Withdraw bool
	Amount   string
	// Reject refuses the request instead of completing it
	Reject bool
}

var scenarios = []Scenario{
	{Name: "deposit small", Amount: "150.00"},
	{Name: "deposit large", Amount: "2500.00"},
	{Name: "deposit rejected", Amount: "900.00", Reject: true},
	{Name: "withdraw", Withdraw: true, Amount: "600.00"},
	{Name: "withdraw large", Withdraw: true, Amount: "4000.00"},
	{Name: "withdraw rejected", Withdraw: true, Amount: "700.00", Reject: true},
}

// Result is the outcome of one scenario run
type Result struct {
	Scenario string
	Latency  time.Duration
	Status   int
	// Refused marks a 409 or 422, which concurrent overdrafts are expected to produce
	Refused bool
	Err     error
}

// Stats aggregates results
type Stats struct {
	mu        sync.Mutex
	latencies []time.Duration
	completed int
	refused   int
	failed    int
	perFlow   map[string]int
	errors    map[string]int
}

func (s *Stats) add(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latencies = append(s.latencies, r.Latency)
	s.perFlow[r.Scenario]++
	switch {
	case r.Err != nil:
		s.failed++
		s.errors[r.Err.Error()]++
	case r.Refused:
		s.refused++
	default:
		s.completed++
	}
}

func (s *Stats) done() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed + s.refused + s.failed
}

type client struct {
	http    *http.Client
	baseURL string
	adminID uuid.UUID
}

// call sends body as JSON acting as caller and decodes a 2xx response into out
func (c *client) call(ctx context.Context, caller uuid.UUID, role, method, path string, body, out any) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if caller != uuid.Nil {
		req.Header.Set("X-User-ID", caller.String())
		req.Header.Set("X-User-Role", role)
	}
	if method == http.MethodPost {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out != nil {
		return resp.StatusCode, json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, nil
}

func (c *client) admin(ctx context.Context, method, path string, body, out any) (int, error) {
	return c.call(ctx, c.adminID, "admin", method, path, body, out)
}

type idResponse struct {
	ID uuid.UUID `json:"id"`
}

// run executes one scenario for user: a request followed by the admin decision
func (c *client) run(ctx context.Context, user uuid.UUID, sc Scenario) Result {
	start := time.Now()
	result := Result{Scenario: sc.Name}

	kind, details := "deposits", map[string]any{"channel": "mobile", "mobile": map[string]any{"transactionId": "LT" + uuid.NewString()[:12]}}
	if sc.Withdraw {
		kind, details = "withdrawals", map[string]any{"channel": "mobile", "mobile": map[string]any{"receiverNumber": "01700000000"}}
	}

	var txn idResponse
	status, err := c.call(ctx, user, "user", http.MethodPost, "/api/v1/users/"+user.String()+"/"+kind, map[string]any{
		"amount":         sc.Amount,
		"method":         "bkash",
		"paymentDetails": details,
	}, &txn)
	if err == nil {
		decision := "verify"
		switch {
		case sc.Reject:
			decision = "reject"
		case sc.Withdraw:
			decision = "process"
		}
		status, err = c.admin(ctx, http.MethodPost, "/api/v1/admin/"+kind+"/"+txn.ID.String()+"/"+decision,
			map[string]any{"reason": "load test", "notes": "load test"}, nil)
	}

	result.Latency = time.Since(start)
	result.Status = status
	if status == http.StatusConflict || status == http.StatusUnprocessableEntity {
		result.Refused = true
		return result
	}
	result.Err = err
	return result
}

func main() {
	concurrency := flag.Int("c", 8, "number of concurrent workers")
	totalRequests := flag.Int("n", 200, "number of scenario runs")
	users := flag.Int("users", 5, "number of accounts to spread load across")
	baseURL := flag.String("url", "http://localhost:8080", "base URL for the API")
	rps := flag.Float64("rps", 50, "maximum scenario runs started per second; 0 for unlimited")
	flag.Parse()

	ctx := context.Background()
	c := &client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: *baseURL,
		adminID: uuid.New(),
	}

	accounts, err := setupAccounts(ctx, c, *users)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Load testing %s with %d accounts\n", *baseURL, len(accounts))
	fmt.Printf("Concurrency: %d workers, %d runs, %.0f runs/s max\n", *concurrency, *totalRequests, *rps)

	limit := rate.Limit(*rps)
	if *rps <= 0 {
		limit = rate.Inf
	}
	limiter := rate.NewLimiter(limit, *concurrency)

	stats := &Stats{perFlow: make(map[string]int), errors: make(map[string]int)}
	jobs := make(chan int)
	startTime := time.Now()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			fmt.Printf("Progress: %d/%d runs\n", stats.done(), *totalRequests)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range *totalRequests {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for range *concurrency {
		g.Go(func() error {
			for range jobs {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
				user := accounts[rand.IntN(len(accounts))]
				stats.add(c.run(gctx, user, scenarios[rand.IntN(len(scenarios))]))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "load test aborted: %v\n", err)
	}
	elapsed := time.Since(startTime)

	printResults(stats, elapsed)

	if !reconcile(ctx, c, accounts) {
		os.Exit(1)
	}
}

// setupAccounts registers users and funds each with one verified deposit
func setupAccounts(ctx context.Context, c *client, n int) ([]uuid.UUID, error) {
	accounts := make([]uuid.UUID, 0, n)
	for i := range n {
		var user idResponse
		if _, err := c.call(ctx, uuid.Nil, "", http.MethodPost, "/api/v1/users", map[string]any{
			"fullName": fmt.Sprintf("Load Test %d", i+1),
			"phone":    fmt.Sprintf("019%08d", rand.IntN(100_000_000)),
		}, &user); err != nil {
			return nil, err
		}
		if r := c.run(ctx, user.ID, Scenario{Name: "opening deposit", Amount: "10000.00"}); r.Err != nil || r.Refused {
			return nil, fmt.Errorf("funding %s: status %d: %v", user.ID, r.Status, r.Err)
		}
		accounts = append(accounts, user.ID)
	}
	return accounts, nil
}

// reconcile reports whether every account's balance matches its history
func reconcile(ctx context.Context, c *client, accounts []uuid.UUID) bool {
	fmt.Println("\n----------------- RECONCILIATION -----------------")
	ok := true
	for _, id := range accounts {
		var r struct {
			Stored   string `json:"stored"`
			Computed string `json:"computed"`
			Balanced bool   `json:"balanced"`
		}
		if _, err := c.admin(ctx, http.MethodGet, "/api/v1/admin/users/"+id.String()+"/reconcile", nil, &r); err != nil {
			fmt.Printf("%s: %v\n", id, err)
			ok = false
			continue
		}
		mark := "ok"
		if !r.Balanced {
			mark = "MISMATCH"
			ok = false
		}
		fmt.Printf("%s: stored %s computed %s %s\n", id, r.Stored, r.Computed, mark)
	}
	return ok
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[min(len(sorted)*p/100, len(sorted)-1)]
}

func printResults(stats *Stats, elapsed time.Duration) {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	total := stats.completed + stats.refused + stats.failed
	sorted := slices.Clone(stats.latencies)
	slices.Sort(sorted)

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	var avg time.Duration
	if len(sorted) > 0 {
		avg = sum / time.Duration(len(sorted))
	}

	fmt.Println("\n================= TEST RESULTS =================")
	fmt.Printf("Runs:        %d in %.2fs (%.2f runs/s)\n", total, elapsed.Seconds(), float64(total)/elapsed.Seconds())
	fmt.Printf("Completed:   %d\n", stats.completed)
	fmt.Printf("Refused:     %d (overdrafts and races, expected)\n", stats.refused)
	fmt.Printf("Failed:      %d\n", stats.failed)

	fmt.Println("\n----------------- LATENCY -----------------")
	fmt.Printf("Average: %v  P50: %v  P90: %v  P99: %v  Max: %v\n",
		avg, percentile(sorted, 50), percentile(sorted, 90), percentile(sorted, 99), percentile(sorted, 100))

	fmt.Println("\n----------------- SCENARIOS -----------------")
	for _, sc := range scenarios {
		fmt.Printf("%-18s %d\n", sc.Name, stats.perFlow[sc.Name])
	}

	if len(stats.errors) > 0 {
		fmt.Println("\n----------------- ERRORS -----------------")
		for msg, count := range stats.errors {
			fmt.Printf("%4d  %s\n", count, msg)
		}
	}
}
