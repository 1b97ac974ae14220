// Package ranking renders the backend's leaderboard. Order and points are computed
// by the backend; nothing here sorts or scores.
package ranking

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// DefaultTopN is the number of medal rows.
const DefaultTopN = 3

var medals = []string{"gold", "silver", "bronze"}

type (
	Entry struct {
		StudentID   int    `json:"student_id"`
		StudentName string `json:"student_name"`
		Points      int    `json:"points"`
	}

	Position struct {
		Rank int   `json:"rank"`
		Data Entry `json:"data"`
	}

	Response struct {
		Top        []Entry   `json:"top"`
		MyPosition *Position `json:"my_position"`
	}

	Row struct {
		Entry
		Rank  int
		Medal string
		Mine  bool
	}

	Board struct {
		Top  []Row
		Mine *Row // only when the student is outside Top
	}
)

// NewBoard keeps the first topN entries in server order and adds the student's
// own position when it is not already one of them.
func NewBoard(resp Response, studentID, topN int) Board {
	if topN <= 0 {
		topN = DefaultTopN
	}
	top := resp.Top
	if len(top) > topN {
		top = top[:topN]
	}

	board := Board{Top: make([]Row, 0, len(top))}
	for i, e := range top {
		row := Row{Entry: e, Rank: i + 1, Mine: studentID != 0 && e.StudentID == studentID}
		if i < len(medals) {
			row.Medal = medals[i]
		}
		board.Top = append(board.Top, row)
	}

	if resp.MyPosition == nil {
		return board
	}
	mine := resp.MyPosition.Data
	if mine.StudentID == 0 {
		mine.StudentID = studentID
	}
	inTop := lo.ContainsBy(top, func(e Entry) bool {
		return e.StudentID == mine.StudentID || (studentID != 0 && e.StudentID == studentID)
	})
	if !inTop {
		board.Mine = &Row{Entry: mine, Rank: resp.MyPosition.Rank, Mine: true}
	}
	return board
}

type (
	Backend interface {
		GroupRanking(ctx context.Context, groupID int) (Response, error)
		TopRanking(ctx context.Context) (Response, error)
	}

	Service struct {
		backend Backend
		topN    int
	}
)

func NewService(backend Backend, topN int) *Service {
	return &Service{backend: backend, topN: topN}
}

// ForStudent returns the board of the student's group, or the global one without a group.
func (svc *Service) ForStudent(ctx context.Context, groupID, studentID int) (Board, error) {
	var resp Response
	var err error
	if groupID > 0 {
		resp, err = svc.backend.GroupRanking(ctx, groupID)
	} else {
		resp, err = svc.backend.TopRanking(ctx)
	}
	if err != nil {
		return Board{}, errors.Wrap(err, "fetching ranking")
	}
	return NewBoard(resp, studentID, svc.topN), nil
}
