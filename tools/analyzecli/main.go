// tools/analyzecli submits one analysis request to a running service
// and prints the verdict. Handy for smoke-testing a deployment.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

func main() {
	server := flag.String("server", "http://localhost:8000", "service base URL")
	videoID := flag.String("video", "", "video ID to analyze")
	title := flag.String("title", "", "video title (optional, fetched when empty)")
	maxClaims := flag.Int("max-claims", 0, "claim cap (0 uses the server default)")
	flag.Parse()

	if *videoID == "" {
		fmt.Println("usage: analyzecli -video <id> [-server url] [-title t] [-max-claims n]")
		os.Exit(1)
	}

	reqBody, err := json.Marshal(map[string]interface{}{
		"video_id":   *videoID,
		"title":      *title,
		"max_claims": *maxClaims,
	})
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Post(*server+"/api/analyze", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Server returned status %s\n", resp.Status)
		os.Exit(1)
	}

	var verdict map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		fmt.Printf("Error parsing response: %v\n", err)
		os.Exit(1)
	}

	pretty, _ := json.MarshalIndent(verdict, "", "  ")
	fmt.Println(string(pretty))
}
