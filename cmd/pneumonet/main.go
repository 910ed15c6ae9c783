// Command pneumonet is a CLI client for the PneumoNet API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"pneumonet/client"
)

func main() {
	url := flag.String("url", "http://localhost:8080", "API base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")
	health := flag.Bool("health", false, "Check API health")
	info := flag.Bool("info", false, "Get model information")
	predict := flag.String("predict", "", "Predict for a single image file")
	useBase64 := flag.Bool("base64", false, "Send the image as base64 JSON instead of a file upload")
	batch := flag.String("batch", "", "Predict for multiple images (comma-separated paths)")
	threshold := flag.Bool("threshold", false, "Get the current classification threshold")
	setThreshold := flag.Float64("set-threshold", -1, "Set a new classification threshold in [0,1]")
	flag.Parse()

	c := client.New(*url, client.WithTimeout(*timeout))
	ctx := context.Background()

	var err error
	switch {
	case *health:
		err = runHealth(ctx, c)
	case *info:
		err = runInfo(ctx, c)
	case *predict != "":
		err = runPredict(ctx, c, *predict, *useBase64)
	case *batch != "":
		err = runBatch(ctx, c, strings.Split(*batch, ","))
	case *threshold:
		err = runThreshold(ctx, c)
	case *setThreshold >= 0:
		err = runSetThreshold(ctx, c, *setThreshold)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runHealth(ctx context.Context, c *client.Client) error {
	h, err := c.HealthCheck(ctx)
	if err != nil {
		fmt.Println("API Health: unhealthy")
		return err
	}
	fmt.Printf("API Health: %s (model loaded: %v)\n", h.Status, h.ModelLoaded)
	return nil
}

func runInfo(ctx context.Context, c *client.Client) error {
	info, err := c.ModelInfo(ctx)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runPredict(ctx context.Context, c *client.Client, path string, useBase64 bool) error {
	fmt.Printf("\nPredicting for: %s\n", path)
	fmt.Println(strings.Repeat("-", 60))

	var resp client.PredictResponse
	var err error
	if useBase64 {
		resp, err = c.PredictBase64(ctx, path)
	} else {
		resp, err = c.PredictFile(ctx, path)
	}
	if err != nil {
		return err
	}

	pred := resp.Prediction
	fmt.Printf("Result: %s\n", pred.PredictedClass)
	fmt.Printf("Confidence: %.2f%%\n", pred.Confidence)
	fmt.Printf("Pneumonia Probability: %.2f%%\n", pred.PneumoniaProbability*100)
	fmt.Printf("Normal Probability: %.2f%%\n", pred.NormalProbability*100)
	fmt.Printf("Threshold Used: %v\n", pred.ThresholdUsed)
	fmt.Printf("Timestamp: %s\n", resp.Timestamp)
	fmt.Println(strings.Repeat("-", 60))
	return nil
}

func runBatch(ctx context.Context, c *client.Client, paths []string) error {
	fmt.Printf("\nPredicting for %d images...\n", len(paths))
	fmt.Println(strings.Repeat("=", 60))

	resp, err := c.PredictBatch(ctx, paths)
	if err != nil {
		return err
	}

	fmt.Printf("Total Images: %d\n", resp.TotalImages)
	fmt.Printf("Successful: %d\n", resp.SuccessfulPredictions)
	fmt.Printf("Failed: %d\n", resp.FailedPredictions)
	fmt.Println(strings.Repeat("=", 60))

	for i, pred := range resp.Predictions {
		fmt.Printf("\n[%d] %s\n", i+1, pred.Filename)
		fmt.Printf("    Result: %s\n", pred.PredictedClass)
		fmt.Printf("    Confidence: %.2f%%\n", pred.Confidence)
	}
	for _, e := range resp.Errors {
		fmt.Printf("\n[!] item %d (%s): %s\n", e.Index, e.Filename, e.Message)
	}
	return nil
}

func runThreshold(ctx context.Context, c *client.Client) error {
	t, err := c.Threshold(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Current Threshold: %v\n", t)
	return nil
}

func runSetThreshold(ctx context.Context, c *client.Client, t float64) error {
	if err := c.SetThreshold(ctx, t); err != nil {
		return err
	}
	fmt.Printf("Threshold updated to: %v\n", t)
	return nil
}
