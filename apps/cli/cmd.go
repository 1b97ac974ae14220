package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/ranking"
	"github.com/trezcool/classboard/core/session"
	"github.com/trezcool/classboard/core/task"
	"github.com/trezcool/classboard/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotAStudent = errors.New("only students have tasks")
)

type commandLine struct {
	out        io.Writer
	preview    int
	usrSvc     *user.Service
	taskSvc    *task.Service
	rankingSvc *ranking.Service
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  tasks -username USERNAME [-all] - list the student's tasks and their status")
	fmt.Fprintln(cli.out, "  ranking -username USERNAME      - show the ranking of the user's group")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	tasksCmd := flag.NewFlagSet("tasks", flag.ContinueOnError)
	tasksCmd.SetOutput(cli.out)
	tasksUname := tasksCmd.String("username", "", "The student's username. The password will be prompted next.")
	tasksAll := tasksCmd.Bool("all", false, "List every task instead of the preview.")

	rankingCmd := flag.NewFlagSet("ranking", flag.ContinueOnError)
	rankingCmd.SetOutput(cli.out)
	rankingUname := rankingCmd.String("username", "", "The user's username. The password will be prompted next.")

	switch args[1] {
	case "tasks":
		if err := tasksCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		ctx, usr, err := cli.login(tasksCmd, *tasksUname)
		if err != nil {
			return err
		}
		return cli.tasks(ctx, usr, *tasksAll)
	case "ranking":
		if err := rankingCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		ctx, usr, err := cli.login(rankingCmd, *rankingUname)
		if err != nil {
			return err
		}
		return cli.ranking(ctx, usr)
	default:
		cli.printUsage()
		return errHelp
	}
}

// login prompts for the password and returns a context carrying the access token.
func (cli *commandLine) login(cmd *flag.FlagSet, uname string) (context.Context, user.User, error) {
	if uname == "" {
		cmd.Usage()
		return nil, user.User{}, errHelp
	}
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return nil, user.User{}, err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return nil, user.User{}, errHelp
	}

	ctx := context.Background()
	tokens, usr, err := cli.usrSvc.Login(ctx, user.Credentials{Username: core.CleanString(uname), Password: string(pwd)})
	if err != nil {
		return nil, user.User{}, err
	}
	return session.WithToken(ctx, tokens.Access), usr, nil
}

func (cli *commandLine) tasks(ctx context.Context, usr user.User, all bool) error {
	if !usr.IsStudent() {
		return errNotAStudent
	}
	tasks, err := cli.taskSvc.Mine(ctx)
	if err != nil {
		return err
	}
	w := task.NewWindow(tasks, all, cli.preview)

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tDEADLINE\tSTATUS\tGRADE")
	for _, t := range w.Tasks {
		grade := "-"
		if t.Submission != nil && t.Submission.GradeVisible() {
			grade = fmt.Sprint(*t.Submission.Grade)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name, t.Deadline, t.Status(), grade)
	}
	if err = tw.Flush(); err != nil {
		return err
	}
	if w.HasToggle && !w.ShowAll {
		fmt.Fprintf(cli.out, "%d of %d tasks, use -all to see them all\n", len(w.Tasks), w.Total)
	}
	return nil
}

func (cli *commandLine) ranking(ctx context.Context, usr user.User) error {
	var studentID int
	if usr.IsStudent() {
		studentID = usr.ID
	}
	board, err := cli.rankingSvc.ForStudent(ctx, usr.GroupID, studentID)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	row := func(r ranking.Row) {
		name := r.StudentName
		if r.Mine {
			name += " (you)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\n", r.Rank, name, r.Points)
	}
	fmt.Fprintln(tw, "#\tSTUDENT\tPOINTS")
	for _, r := range board.Top {
		row(r)
	}
	if board.Mine != nil {
		fmt.Fprintln(tw, "...\t\t")
		row(*board.Mine)
	}
	return tw.Flush()
}
