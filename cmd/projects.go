package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/portfolio/internal/client"
	"github.com/kozaktomas/portfolio/internal/config"
	"github.com/kozaktomas/portfolio/internal/dashboard"
	"github.com/kozaktomas/portfolio/internal/database"
	"github.com/kozaktomas/portfolio/internal/format"
	"github.com/kozaktomas/portfolio/internal/imageopt"
	"github.com/kozaktomas/portfolio/internal/portfolio"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project"},
	Short:   "Manage portfolio projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects in display order",
	Args:  cobra.NoArgs,
	RunE:  runProjectsList,
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	Long: `Create a project. The image is optimised locally before upload when it
is larger than the configured limit.

Example:
  portfolio projects create --title "Photo Sorter" --short "Sorts photos" \
    --description "Longer text" --repo https://github.com/kozaktomas/photo-sorter \
    --tags go,cli --image ./cover.png`,
	Args: cobra.NoArgs,
	RunE: runProjectsCreate,
}

var projectsUpdateCmd = &cobra.Command{
	Use:   "update <project-id>",
	Short: "Update a project",
	Long: `Update a project. Only the flags given are changed; the image is kept
unless --image or --remove-image is passed.`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectsUpdate,
}

var projectsReorderCmd = &cobra.Command{
	Use:   "reorder <project-id> <over-project-id>",
	Short: "Move a project to another project's position",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectsReorder,
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <project-id> [project-id...]",
	Short: "Delete projects",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProjectsDelete,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.AddCommand(projectsListCmd, projectsCreateCmd, projectsUpdateCmd, projectsReorderCmd, projectsDeleteCmd)

	projectsListCmd.Flags().Bool("stats", false, "Fetch GitHub stars and forks for each project")
	projectsListCmd.Flags().String("locale", format.DefaultLocale, "Locale for dates and numbers")

	for _, c := range []*cobra.Command{projectsCreateCmd, projectsUpdateCmd} {
		c.Flags().String("title", "", "Project title")
		c.Flags().String("short", "", "Short description shown on the card")
		c.Flags().String("description", "", "Full description (HTML allowed)")
		c.Flags().String("repo", "", "Repository URL")
		c.Flags().String("demo", "", "Demo URL")
		c.Flags().StringSlice("tags", nil, "Comma separated tags")
		c.Flags().String("image", "", "Path to the project image")
	}
	projectsUpdateCmd.Flags().Bool("remove-image", false, "Remove the current image")

	projectsDeleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

// checkResult turns a failed action into an error.
func checkResult(res portfolio.ActionResult[bool]) error {
	if res.Failed() {
		return errors.New(res.Error)
	}
	return nil
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient(false)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	projects, err := c.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}
	if len(projects) == 0 {
		fmt.Println("No projects found.")
		return nil
	}

	locale := mustGetString(cmd, "locale")
	withStats := mustGetBool(cmd, "stats")
	stats := make([]string, len(projects))
	if withStats {
		stats = fetchStatsColumn(ctx, c, projects, locale)
	}

	table := newTable(os.Stdout)
	header := []string{"#", "ID", "Title", "Tags", "Created"}
	if withStats {
		header = append(header, "Stars / Forks")
	}
	table.Header(header)
	for i, p := range projects {
		row := []string{
			strconv.Itoa(p.SortOrder),
			p.ID,
			portfolio.Truncate(p.Title, 40),
			strings.Join(portfolio.VisibleTags(p.Tags, 4), ", "),
			format.Date(p.CreatedAt, format.DateOptions{Locale: locale}),
		}
		if withStats {
			row = append(row, stats[i])
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

// fetchStatsColumn looks up GitHub stats for every project, four at a time.
func fetchStatsColumn(ctx context.Context, c *client.Client, projects []database.Project, locale string) []string {
	out := make([]string, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, p := range projects {
		if p.RepoURL == "" {
			continue
		}
		g.Go(func() error {
			stats, err := c.GitHubStats(gctx, p.RepoURL)
			switch {
			case err != nil:
				out[i] = dimColor.Sprint("error")
			case stats == nil:
				out[i] = dimColor.Sprint("-")
			default:
				out[i] = fmt.Sprintf("%s / %s",
					format.Number(float64(stats.Stars), locale), format.Number(float64(stats.Forks), locale))
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// prepareImage runs path through the image field the same way the admin form
// does: small files pass through, large ones are optimised locally.
func prepareImage(ctx context.Context, path string) (*imageopt.File, error) {
	file, err := imageopt.OpenFile(path)
	if err != nil {
		return nil, err
	}

	opts := config.Load().Images
	field := dashboard.NewImageField(imageopt.New(), opts, nil)
	if file.Size() > opts.MaxBytes {
		fmt.Printf("Optimizing %s (%s)...\n", file.Name, format.ByteSize(file.Size()))
	}

	state := field.Select(ctx, file)
	if state.Status != dashboard.ImageReady {
		return nil, errors.New(state.Message)
	}
	if state.WasOptimized {
		fmt.Printf("Optimized to %s (%s)\n", format.ByteSize(state.FinalBytes), state.MIMEType)
	}
	return field.Prepared(), nil
}

// applyProjectFlags copies the flags that were set onto in.
func applyProjectFlags(cmd *cobra.Command, in *portfolio.ProjectInput) error {
	flags := cmd.Flags()
	if flags.Changed("title") {
		in.Title = mustGetString(cmd, "title")
	}
	if flags.Changed("short") {
		in.ShortDescription = mustGetString(cmd, "short")
	}
	if flags.Changed("description") {
		in.Description = mustGetString(cmd, "description")
	}
	if flags.Changed("repo") {
		in.RepoURL = mustGetString(cmd, "repo")
	}
	if flags.Changed("demo") {
		in.DemoURL = mustGetString(cmd, "demo")
	}
	if flags.Changed("tags") {
		in.Tags = portfolio.NormalizeTags(mustGetStringSlice(cmd, "tags"))
	}
	if path := mustGetString(cmd, "image"); path != "" {
		img, err := prepareImage(cmd.Context(), path)
		if err != nil {
			return err
		}
		in.Image = img
	}
	return nil
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient(true)
	if err != nil {
		return err
	}

	var in portfolio.ProjectInput
	if err := applyProjectFlags(cmd, &in); err != nil {
		return err
	}
	if errs := portfolio.ValidateProjectInput(in); len(errs) > 0 {
		return errors.New(strings.Join(errs, "\n"))
	}

	if err := checkResult(c.CreateProject(cmd.Context(), in)); err != nil {
		return err
	}
	successColor.Printf("Created project %q\n", in.Title)
	return nil
}

func runProjectsUpdate(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient(true)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	projects, err := c.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}
	idx := indexOfProject(projects, args[0])
	if idx < 0 {
		return errors.New(portfolio.MsgProjectNotFound)
	}
	current := projects[idx]

	in := portfolio.ProjectInput{
		ID:               current.ID,
		Title:            current.Title,
		ShortDescription: current.ShortDescription,
		Description:      current.Description,
		RepoURL:          current.RepoURL,
		DemoURL:          current.DemoURL,
		Tags:             current.Tags,
		CurrentImageURL:  current.ImageURL,
	}
	if mustGetBool(cmd, "remove-image") {
		in.CurrentImageURL = ""
	}
	if err := applyProjectFlags(cmd, &in); err != nil {
		return err
	}
	if errs := portfolio.ValidateProjectInput(in); len(errs) > 0 {
		return errors.New(strings.Join(errs, "\n"))
	}

	if err := checkResult(c.UpdateProject(ctx, in)); err != nil {
		return err
	}
	successColor.Printf("Updated project %q\n", in.Title)
	return nil
}

func indexOfProject(projects []database.Project, id string) int {
	for i, p := range projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func runProjectsReorder(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient(true)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	projects, err := c.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	db := dashboard.New(c, projects, dashboard.WithSavedDelay(0), dashboard.WithOnChange(func(s dashboard.State) {
		if s.Status == dashboard.OrderSaving {
			dimColor.Println(s.Status.Text())
		}
	}))
	defer db.Close()

	if !db.Reorder(ctx, args[0], args[1]) {
		return errors.New("nothing to reorder: both ids must be different existing projects")
	}

	state := db.State()
	if state.Message != "" {
		return errors.New(state.Message)
	}
	successColor.Println(dashboard.OrderSaved.Text())
	for i, p := range state.Projects {
		fmt.Printf("%3d. %s\n", i+1, p.Title)
	}
	return nil
}

// confirmPrompt asks a yes/no question on stdin, defaulting to no.
func confirmPrompt(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func runProjectsDelete(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient(true)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	projects, err := c.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	db := dashboard.New(c, projects)
	defer db.Close()
	for _, id := range args {
		if indexOfProject(projects, id) < 0 {
			warnColor.Printf("Skipping unknown project %s\n", id)
			continue
		}
		db.Select(id)
	}

	confirm := confirmPrompt
	if mustGetBool(cmd, "yes") {
		confirm = func(string) bool { return true }
	}
	if !db.DeleteSelected(ctx, confirm) {
		fmt.Println("Nothing deleted.")
		return nil
	}

	if msg := db.State().Message; msg != "" {
		errorColor.Println(msg)
		return errors.New("delete failed")
	}
	successColor.Println("Deleted.")
	return nil
}
