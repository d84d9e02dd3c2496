package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ChamsBouzaiene/dojo/internal/policy"
	"github.com/ChamsBouzaiene/dojo/internal/providers"
	"github.com/ChamsBouzaiene/dojo/internal/workspace"
)

var modeBlurbs = map[string]string{
	"python_basic": "plain Python fundamentals",
	"py5":          "creative coding with py5 sketches",
	"sklearn":      "machine learning with scikit-learn",
	"pandas":       "data analysis with pandas",
	"web_basic":    "HTML, CSS and vanilla JavaScript pages",
	"aframe":       "WebVR scenes with A-Frame",
	"threejs":      "3D graphics with three.js",
}

// pickMode asks which mode to teach in. Files already in the root
// suggest a default; the choice stays the user's.
func pickMode(root string, in *bufio.Reader) string {
	ids := policy.IDs()

	suggested := ""
	if family, ok := workspace.DetectKind(root); ok {
		switch family {
		case policy.FamilyPython:
			suggested = "python_basic"
		case policy.FamilyWeb:
			suggested = "web_basic"
		}
	}

	fmt.Println("Pick a mode:")
	for i, id := range ids {
		mark := " "
		if id == suggested {
			mark = "*"
		}
		fmt.Printf(" %s %2d) %-12s %s\n", mark, i+1, id, modeBlurbs[id])
	}

	for {
		if suggested != "" {
			fmt.Printf("mode [%s]> ", suggested)
		} else {
			fmt.Print("mode> ")
		}
		line, err := in.ReadString('\n')
		if err != nil {
			break
		}
		choice := strings.TrimSpace(line)
		if choice == "" && suggested != "" {
			return suggested
		}
		if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(ids) {
			return ids[n-1]
		}
		for _, id := range ids {
			if id == choice {
				return id
			}
		}
		fmt.Println("Pick a number from the list or type a mode name.")
	}
	if suggested != "" {
		return suggested
	}
	return ids[0]
}

// pickModel lists what the local backend has loaded and asks which one
// to use. Hosted providers cannot be listed, so they need -model.
func pickModel(ctx context.Context, provider, baseURL string, in *bufio.Reader) (string, error) {
	if provider != providers.ProviderOllama && provider != providers.ProviderLMStudio {
		return "", fmt.Errorf("provider %s needs an explicit -model", provider)
	}

	names, err := providers.ListLocalModels(ctx, baseURL)
	if err != nil || len(names) == 0 {
		if err != nil {
			fmt.Printf("Could not list models from %s at %s.\n", provider, baseURL)
		} else {
			fmt.Printf("%s has no models loaded.\n", provider)
		}
		fmt.Print("model> ")
		line, rerr := in.ReadString('\n')
		name := strings.TrimSpace(line)
		if rerr != nil || name == "" {
			return "", fmt.Errorf("no model chosen")
		}
		return name, nil
	}

	fmt.Println("Local models:")
	for i, n := range names {
		fmt.Printf("  %2d) %s\n", i+1, n)
	}
	for {
		fmt.Print("model [1]> ")
		line, err := in.ReadString('\n')
		if err != nil {
			return names[0], nil
		}
		choice := strings.TrimSpace(line)
		if choice == "" {
			return names[0], nil
		}
		if n, err := strconv.Atoi(choice); err == nil {
			if n >= 1 && n <= len(names) {
				return names[n-1], nil
			}
			fmt.Println("Pick a number from the list or paste a model name.")
			continue
		}
		// A pasted name outside the list is allowed; the preflight
		// warning will flag it if the backend doesn't know it.
		return choice, nil
	}
}
