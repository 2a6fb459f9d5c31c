package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/focusflow/internal/courses"
	"github.com/verte-zerg/focusflow/internal/stats"
)

var (
	courseDescription string
	materialTitle     string
	extractOutput     string
	extractPreview    bool
)

func newCoursesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Manage courses and their study materials",
		Args:  cobra.NoArgs,
		RunE:  runCoursesListCmd,
	}

	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCourses(func(ctx context.Context, mgr *courses.Manager) error {
				course, err := mgr.Create(ctx, args[0], courseDescription)
				if err != nil {
					return err
				}
				return printLine(cmd.OutOrStdout(), course.ID)
			})
		},
	}
	addCmd.Flags().StringVar(&courseDescription, "description", "", "course description")

	linkCmd := &cobra.Command{
		Use:   "link <course-id> <url>",
		Short: "Attach a link to a course",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCourses(func(ctx context.Context, mgr *courses.Manager) error {
				mat, err := mgr.AddLink(ctx, args[0], materialTitle, args[1])
				if err != nil {
					return err
				}
				return printLine(cmd.OutOrStdout(), mat.ID)
			})
		},
	}
	linkCmd.Flags().StringVar(&materialTitle, "title", "", "material title (default: the URL)")

	attachCmd := &cobra.Command{
		Use:   "attach <course-id> <file>",
		Short: "Attach a PDF or Word file (up to 5 MB)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCourses(func(ctx context.Context, mgr *courses.Manager) error {
				mat, err := mgr.AttachFile(ctx, args[0], materialTitle, args[1])
				if err != nil {
					return err
				}
				if mat.Pages > 0 {
					logErrf("Attached %s (%d pages).\n", mat.FileName, mat.Pages)
				}
				return printLine(cmd.OutOrStdout(), mat.ID)
			})
		},
	}
	attachCmd.Flags().StringVar(&materialTitle, "title", "", "material title (default: file name)")

	extractCmd := &cobra.Command{
		Use:   "extract <material-id>",
		Short: "Write an attached file to disk, or preview the first PDF page",
		Args:  cobra.ExactArgs(1),
		RunE:  runExtractCmd,
	}
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output path (default: original file name)")
	extractCmd.Flags().BoolVar(&extractPreview, "preview", false, "print the text of the first page instead (PDF only)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List courses and materials",
		Args:  cobra.NoArgs,
		RunE:  runCoursesListCmd,
	})
	cmd.AddCommand(addCmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <course-id>",
		Short: "Delete a course and its materials",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withCourses(func(ctx context.Context, mgr *courses.Manager) error {
				return mgr.Remove(ctx, args[0])
			})
		},
	})
	cmd.AddCommand(linkCmd, attachCmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "detach <material-id>",
		Short: "Delete one material",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withCourses(func(ctx context.Context, mgr *courses.Manager) error {
				return mgr.RemoveMaterial(ctx, args[0])
			})
		},
	})
	cmd.AddCommand(extractCmd)
	return cmd
}

func runCoursesListCmd(cmd *cobra.Command, _ []string) error {
	return withCourses(func(ctx context.Context, mgr *courses.Manager) error {
		views, err := mgr.List(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(views) == 0 {
			return printLine(out, "No courses yet. Add one with: focusflow courses add <title>")
		}
		for i, view := range views {
			if i > 0 {
				if err := printLine(out, ""); err != nil {
					return err
				}
			}
			header := fmt.Sprintf("%s  %s", view.Title, view.ID)
			if view.Description != "" {
				header += "\n" + view.Description
			}
			if err := printLine(out, header); err != nil {
				return err
			}
			if len(view.Materials) == 0 {
				continue
			}
			rows := make([][]string, 0, len(view.Materials))
			for _, mat := range view.Materials {
				rows = append(rows, materialRow(mat.ID, mat.Title, mat.URL, mat.FileName, mat.Size, mat.Pages, mat.CreatedAt))
			}
			if err := stats.RenderTable(out, []string{"ID", "Title", "Source", "Size", "Pages", "Added"}, rows, map[int]bool{3: true, 4: true}); err != nil {
				return err
			}
		}
		return nil
	})
}

func materialRow(id, title, url, fileName string, size int64, pages int, createdAt int64) []string {
	source := url
	sizeText := ""
	pagesText := ""
	if fileName != "" {
		source = fileName
		sizeText = formatBytes(size)
	}
	if pages > 0 {
		pagesText = strconv.Itoa(pages)
	}
	return []string{id, title, source, sizeText, pagesText, time.UnixMilli(createdAt).Format("2006-01-02")}
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func runExtractCmd(cmd *cobra.Command, args []string) error {
	return withCourses(func(ctx context.Context, mgr *courses.Manager) error {
		if extractPreview {
			text, err := mgr.Preview(ctx, args[0])
			if err != nil {
				return err
			}
			return printLine(cmd.OutOrStdout(), text)
		}
		mat, data, err := mgr.Extract(ctx, args[0])
		if err != nil {
			return err
		}
		path := extractOutput
		if path == "" {
			path = mat.FileName
		}
		if err := writeFileAtomic(path, func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		logErrf("Wrote %s\n", path)
		return nil
	})
}

func withCourses(fn func(ctx context.Context, mgr *courses.Manager) error) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	return fn(context.Background(), courses.NewManager(st))
}

func printLine(w io.Writer, line string) error {
	if _, err := fmt.Fprintln(w, line); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
