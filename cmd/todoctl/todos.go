package main

import (
	"github.com/spf13/cobra"

	"github.com/todo-team/todolist/internal/client"
)

var todoReq client.TodoRequest

var todosCmd = &cobra.Command{
	Use:   "todos",
	Short: "List your todos",
	RunE: func(cmd *cobra.Command, _ []string) error {
		todos, err := api.Todos(cmd.Context())
		if err != nil {
			return report(cmd, client.Done("", err))
		}
		return printJSON(cmd, todos)
	},
}

var addTodoCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		todoReq.Name = args[0]
		todo, err := api.AddTodo(cmd.Context(), todoReq)
		if err != nil {
			return report(cmd, client.Done("", err))
		}
		return printJSON(cmd, todo)
	},
}

var doneCmd = &cobra.Command{
	Use:   "done ID",
	Short: "Mark a todo done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		done := true
		todo, err := api.UpdateTodo(cmd.Context(), args[0], client.TodoPatch{Done: &done})
		if err != nil {
			return report(cmd, client.Done("", err))
		}
		return printJSON(cmd, todo)
	},
}

var removeTodoCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return report(cmd, client.Run(func() (string, error) {
			return api.DeleteTodo(cmd.Context(), args[0])
		}))
	},
}

func init() {
	addTodoCmd.Flags().StringVar(&todoReq.Description, "desc", "", "description")
	addTodoCmd.Flags().StringVar(&todoReq.Image, "image", "", "image URL")

	todosCmd.AddCommand(addTodoCmd, doneCmd, removeTodoCmd)
	rootCmd.AddCommand(todosCmd)
}
