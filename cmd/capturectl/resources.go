package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	convCmd := &cobra.Command{Use: "conversations", Aliases: []string{"conv"}, Short: "Conversation operations"}

	var limit, offset int
	listConv := &cobra.Command{
		Use:   "list",
		Short: "List conversations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(apiFlag, "/api/conversations", limit, offset, os.Stdout)
		},
	}
	listConv.Flags().IntVarP(&limit, "limit", "l", 50, "Page size")
	listConv.Flags().IntVarP(&offset, "offset", "o", 0, "Page offset")
	convCmd.AddCommand(listConv)

	var title string
	createConv := &cobra.Command{
		Use:   "create",
		Short: "Create a conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateConversation(apiFlag, title, os.Stdout)
		},
	}
	createConv.Flags().StringVarP(&title, "title", "t", "", "Conversation title")
	convCmd.AddCommand(createConv)

	convCmd.AddCommand(&cobra.Command{
		Use:   "messages CONVERSATION_ID",
		Short: "List messages of a conversation, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(apiFlag, "/api/conversations/"+args[0]+"/messages", 100, 0, os.Stdout)
		},
	})
	convCmd.AddCommand(deleteCmd("conversations"))
	rootCmd.AddCommand(convCmd)

	for _, res := range []string{"notes", "tasks"} {
		c := &cobra.Command{Use: res, Short: fmt.Sprintf("%s operations", res)}
		path := "/api/" + res
		c.AddCommand(&cobra.Command{
			Use:   "list",
			Short: "List " + res + ", newest first",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runList(apiFlag, path, 0, 0, os.Stdout)
			},
		})
		c.AddCommand(&cobra.Command{
			Use:   "get ID",
			Short: "Get one of " + res,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return call(newClient(apiFlag), "GET", path+"/"+args[0], nil, nil, os.Stdout)
			},
		})
		c.AddCommand(deleteCmd(res))
		rootCmd.AddCommand(c)
	}
}

func deleteCmd(resource string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(newClient(apiFlag), "DELETE", "/api/"+resource+"/"+args[0], nil, nil, os.Stdout)
		},
	}
}

func runList(apiURL, path string, limit, offset int, out io.Writer) error {
	c := newClient(apiURL)
	if limit > 0 {
		c.SetQueryParam("limit", fmt.Sprint(limit))
	}
	if offset > 0 {
		c.SetQueryParam("offset", fmt.Sprint(offset))
	}
	return call(c, "GET", path, nil, nil, out)
}

func runCreateConversation(apiURL, title string, out io.Writer) error {
	body := map[string]string{}
	if title != "" {
		body["title"] = title
	}
	return call(newClient(apiURL), "POST", "/api/conversations", body, nil, out)
}
