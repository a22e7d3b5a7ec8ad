package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	var idemKey string
	sendCmd := &cobra.Command{
		Use:   "send CONVERSATION_ID TEXT...",
		Short: "Send a message to a conversation and print what was created",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("conversation id must be an integer: %w", err)
			}
			return runSend(apiFlag, id, strings.Join(args[1:], " "), idemKey, os.Stdout)
		},
	}
	sendCmd.Flags().StringVarP(&idemKey, "idempotency-key", "k", "", "Idempotency-Key header; retries with the same key replay the first response")
	rootCmd.AddCommand(sendCmd)

	classifyCmd := &cobra.Command{
		Use:   "classify TEXT...",
		Short: "Classify a message without persisting anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(apiFlag, strings.Join(args, " "), os.Stdout)
		},
	}
	rootCmd.AddCommand(classifyCmd)

	var service string
	reloadCmd := &cobra.Command{
		Use:   "reload-prompts",
		Short: "Drop cached prompt configuration on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReloadPrompts(apiFlag, service, os.Stdout)
		},
	}
	reloadCmd.Flags().StringVarP(&service, "service", "s", "", "Reload only this service (default all)")
	rootCmd.AddCommand(reloadCmd)
}

func runSend(apiURL string, conversationID int64, text, idemKey string, out io.Writer) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message text cannot be empty")
	}
	var headers map[string]string
	if idemKey != "" {
		headers = map[string]string{"Idempotency-Key": idemKey}
	}
	path := fmt.Sprintf("/api/conversations/%d/messages", conversationID)
	return call(newClient(apiURL), "POST", path, map[string]string{"text": text}, headers, out)
}

func runClassify(apiURL, text string, out io.Writer) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return call(newClient(apiURL), "POST", "/api/classify-message", map[string]string{"message": text}, nil, out)
}

func runReloadPrompts(apiURL, service string, out io.Writer) error {
	body := map[string]string{}
	if service != "" {
		body["service"] = service
	}
	return call(newClient(apiURL), "POST", "/api/admin/prompts/reload", body, nil, out)
}
