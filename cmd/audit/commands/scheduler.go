package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/crisis-audit/internal/scheduler"
	"github.com/wonny/crisis-audit/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 실행 상태 조회

Example:
  go run ./cmd/audit scheduler start
  go run ./cmd/audit scheduler list
  go run ./cmd/audit scheduler run evaluate`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- evaluate: AUDIT_SCHEDULE (기본 15분마다)
- history_prune: 매일 03:30 (DATABASE_URL 설정 시, AUDIT_RETENTION 이전 실행 삭제)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 실행 상태 조회",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

// newScheduler registers the evaluation job and, with a database, the prune job
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	if err := sched.AddJob(jobs.NewEvaluateJob(a.brain, a.cfg.Audit.Schedule, a.log)); err != nil {
		return nil, err
	}
	if a.repo != nil {
		if err := sched.AddJob(jobs.NewPruneJob(a.repo, a.cfg.Audit.Retention, a.log)); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Structural Crisis Audit Scheduler ===")

	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", jobName)
	result, err := sched.RunJobNow(jobName)
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}
	if !result.Success {
		return fmt.Errorf("❌ job %s failed: %s", jobName, result.Error)
	}

	fmt.Printf("✅ Job %s completed in %s\n", jobName, result.Duration.Round(time.Millisecond))
	return nil
}

// showStatus prints recent stored runs; job history lives in the running scheduler process
func showStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.repo == nil {
		fmt.Println("DATABASE_URL not set: no persisted runs to report")
		return nil
	}

	summaries, err := a.brain.History(ctx, 10)
	if err != nil {
		return err
	}

	fmt.Println("Recent runs:")
	for _, s := range summaries {
		fmt.Printf("  #%-6d %s  %-8s  price=%-8s liquidity=%-8s durability=%-8s failures=%d\n",
			s.ID, s.AsOf.Format(time.RFC3339), s.Overall, s.Price, s.Liquidity, s.Durability, s.Failures)
	}

	counts := map[string]int{}
	for _, s := range summaries {
		counts[s.Overall.String()]++
	}
	levels := make([]string, 0, len(counts))
	for l := range counts {
		levels = append(levels, l)
	}
	sort.Strings(levels)
	fmt.Println("\nBy level:")
	for _, l := range levels {
		fmt.Printf("  %-8s %d\n", l, counts[l])
	}
	return nil
}
