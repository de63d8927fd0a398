package posts

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/crucial707/blog/cmd/cli/client"
	"github.com/crucial707/blog/cmd/cli/output"
	"github.com/spf13/cobra"
)

// InitPosts registers the posts command tree on the root command.
func InitPosts(rootCmd *cobra.Command) {
	postsCmd := &cobra.Command{
		Use:   "posts",
		Short: "Browse and search posts",
	}
	postsCmd.AddCommand(listPostsCmd(), searchPostsCmd())
	rootCmd.AddCommand(postsCmd)
}

type post struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type page struct {
	Current    int  `json:"current"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	NextPage   *int `json:"next_page"`
	PrevPage   *int `json:"prev_page"`
}

// view mirrors the server's {"view": ..., "data": {...}} envelope.
type view struct {
	View string `json:"view"`
	Data struct {
		Data       []post `json:"data"`
		Pagination *page  `json:"pagination,omitempty"`
		Term       string `json:"term,omitempty"`
	} `json:"data"`
}

// ==========================
// List Posts
// ==========================
func listPostsCmd() *cobra.Command {
	var pageNum int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out view
			path := "/?page=" + strconv.Itoa(pageNum)
			if err := client.Call(http.MethodGet, path, nil, &out); err != nil {
				return fmt.Errorf("failed to list posts: %w", err)
			}

			if asJSON {
				return output.JSON(cmd.OutOrStdout(), out.Data)
			}
			renderPosts(cmd.OutOrStdout(), out.Data.Data, pageCaption(out.Data.Pagination))
			return nil
		},
	}

	cmd.Flags().IntVar(&pageNum, "page", 1, "Page number (1-based)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")

	return cmd
}

// ==========================
// Search Posts
// ==========================
func searchPostsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search post titles and bodies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out view
			payload := map[string]string{"searchTerm": strings.Join(args, " ")}
			if err := client.Call(http.MethodPost, "/search", payload, &out); err != nil {
				return fmt.Errorf("failed to search posts: %w", err)
			}

			if asJSON {
				return output.JSON(cmd.OutOrStdout(), out.Data)
			}
			caption := fmt.Sprintf("%d result(s) for %q", len(out.Data.Data), out.Data.Term)
			renderPosts(cmd.OutOrStdout(), out.Data.Data, caption)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")

	return cmd
}

func renderPosts(w io.Writer, posts []post, caption string) {
	rows := make([][]interface{}, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, []interface{}{p.ID, p.Title, p.CreatedAt.Format("2006-01-02 15:04")})
	}
	output.RenderTable(w, []string{"ID", "Title", "Created"}, rows, caption)
}

func pageCaption(p *page) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("page %d of %d (%d posts)", p.Current, p.TotalPages, p.Total)
}
