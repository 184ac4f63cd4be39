// tools/checkenv verifies that the environment variables the service
// needs are present before deployment.
package main

import (
	"fmt"
	"os"
)

func main() {
	required := []string{
		"OPENAI_API_KEY",
		"SEARCH_API_KEY",
	}
	optional := []string{
		"YOUTUBE_API_KEY",
		"SPEECH_TO_TEXT_KEY",
		"CAPTIONS_PROXY_URL",
		"CLIPGUARD_CONFIG",
	}

	missing := []string{}
	for _, key := range required {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		} else {
			fmt.Printf("%s is set\n", key)
		}
	}
	for _, key := range optional {
		if os.Getenv(key) == "" {
			fmt.Printf("%s is not set (optional)\n", key)
		} else {
			fmt.Printf("%s is set\n", key)
		}
	}

	if len(missing) > 0 {
		fmt.Printf("Missing required environment variables: %v\n", missing)
		os.Exit(1)
	}
	fmt.Println("All required environment variables are set.")
}
