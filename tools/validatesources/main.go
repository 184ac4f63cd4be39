// tools/validatesources checks a source trust list for the mistakes
// that silently weaken filtering: bad scores, broken wildcards,
// duplicate domains, and domains on both the whitelist and denylist.
package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v2"
)

type tierConfig struct {
	Score       float64  `yaml:"score"`
	Description string   `yaml:"description"`
	Categories  []string `yaml:"categories"`
	Domains     []string `yaml:"domains"`
}

type sourceList struct {
	Tiers    map[string]tierConfig `yaml:"tiers"`
	Denylist []string              `yaml:"denylist"`
}

func main() {
	path := flag.String("path", "config/sources.yml", "source list to validate")
	flag.Parse()

	fmt.Println("Source List Validator")
	fmt.Println("=====================")

	data, err := os.ReadFile(*path)
	if err != nil {
		fmt.Printf("Error reading source list: %v\n", err)
		os.Exit(1)
	}

	var list sourceList
	if err := yaml.Unmarshal(data, &list); err != nil {
		fmt.Printf("Error parsing source list: %v\n", err)
		os.Exit(1)
	}

	problems := 0
	report := func(format string, args ...interface{}) {
		problems++
		fmt.Printf("PROBLEM: "+format+"\n", args...)
	}

	denied := make(map[string]bool)
	for _, d := range list.Denylist {
		d = strings.ToLower(strings.TrimSpace(d))
		if denied[d] {
			report("duplicate denylist entry %q", d)
		}
		denied[d] = true
	}

	seen := make(map[string]string)
	domainCount := 0
	for name, tier := range list.Tiers {
		if tier.Score <= 0 || tier.Score > 1 {
			report("tier %q has score %.2f, expected (0,1]", name, tier.Score)
		}
		if len(tier.Domains) == 0 {
			report("tier %q has no domains", name)
		}

		for _, domain := range tier.Domains {
			domain = strings.ToLower(strings.TrimSpace(domain))
			domainCount++

			if strings.Contains(domain, "*") {
				expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(domain), `\*`, ".*") + "$"
				if _, err := regexp.Compile(expr); err != nil {
					report("tier %q wildcard %q does not compile: %v", name, domain, err)
				}
			}
			if prev, ok := seen[domain]; ok {
				report("domain %q appears in tiers %q and %q", domain, prev, name)
			}
			seen[domain] = name

			if denied[domain] {
				report("domain %q is both whitelisted (tier %q) and denylisted", domain, name)
			}
		}
	}

	fmt.Printf("\nChecked %d tiers, %d domains, %d denylist entries\n",
		len(list.Tiers), domainCount, len(list.Denylist))
	if problems > 0 {
		fmt.Printf("%d problem(s) found\n", problems)
		os.Exit(1)
	}
	fmt.Println("Source list is valid.")
}
