// Load generator for the coordinator's ProcessRequest surface.
//
//	go run scripts/loadtest.go -addr localhost:50051 -concurrency 10 -duration 1m
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fogfleet/balancer/pkg/wire/lbv1"
)

func main() {
	addr := flag.String("addr", "localhost:50051", "coordinator address")
	concurrency := flag.Int("concurrency", 10, "number of concurrent clients")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	prompt := flag.String("prompt", "Summarize the tradeoffs between small and large language models.", "prompt sent with every request")
	flag.Parse()

	log.Printf("🚀 Load test starting: addr=%s, concurrency=%d, duration=%v", *addr, *concurrency, *duration)

	conn, err := lbv1.Dial(*addr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	client := lbv1.NewCoordinatorClient(conn)

	var (
		totalRequests atomic.Int64
		totalFailures atomic.Int64
		totalErrors   atomic.Int64
		mu            sync.Mutex
		latencies     []time.Duration
		modelDist     = make(map[string]int)
	)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			for seq := 0; ; seq++ {
				select {
				case <-ctx.Done():
					return
				default:
				}

				reqStart := time.Now()
				resp, err := client.ProcessRequest(ctx, &lbv1.AIRequest{
					RequestID: fmt.Sprintf("loadtest-%d-%d", clientID, seq),
					Prompt:    *prompt,
					Timestamp: time.Now().Unix(),
				})
				if err != nil {
					totalErrors.Add(1)
					continue
				}
				elapsed := time.Since(reqStart)
				totalRequests.Add(1)
				if !resp.Success {
					totalFailures.Add(1)
					continue
				}

				mu.Lock()
				latencies = append(latencies, elapsed)
				modelDist[resp.ModelUsed]++
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	mu.Lock()
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	mu.Unlock()

	total := totalRequests.Load()
	failures := totalFailures.Load()
	rpcErrors := totalErrors.Load()

	fmt.Println("\n═══════════════════════════════════════════════════")
	fmt.Println("   🏁 LOAD TEST RESULTS")
	fmt.Println("═══════════════════════════════════════════════════")
	fmt.Printf("   Duration:      %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Concurrency:   %d\n", *concurrency)
	fmt.Printf("   Total Reqs:    %d\n", total)
	fmt.Printf("   Failed Reqs:   %d\n", failures)
	fmt.Printf("   RPC Errors:    %d\n", rpcErrors)
	fmt.Printf("   Throughput:    %.2f req/sec\n", float64(total)/elapsed.Seconds())
	fmt.Println()

	if len(latencies) > 0 {
		fmt.Println("   📊 Latency Percentiles:")
		fmt.Printf("      p50:  %v\n", latencies[len(latencies)*50/100])
		fmt.Printf("      p95:  %v\n", latencies[len(latencies)*95/100])
		fmt.Printf("      p99:  %v\n", latencies[len(latencies)*99/100])
		fmt.Printf("      max:  %v\n", latencies[len(latencies)-1])
	}

	fmt.Println()
	fmt.Println("   🤖 Summarizer Model Distribution:")
	for model, count := range modelDist {
		fmt.Printf("      %s: %d (%.1f%%)\n", model, count, float64(count)/float64(total)*100)
	}
	fmt.Println("═══════════════════════════════════════════════════")
}
