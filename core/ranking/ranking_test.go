package ranking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ania   = Entry{StudentID: 1, StudentName: "ania", Points: 18}
	bartek = Entry{StudentID: 2, StudentName: "bartek", Points: 15}
	celina = Entry{StudentID: 3, StudentName: "celina", Points: 11}
	darek  = Entry{StudentID: 4, StudentName: "darek", Points: 7}
)

func TestNewBoard(t *testing.T) {
	tests := []struct {
		name      string
		resp      Response
		studentID int
		wantTop   []int
		wantMine  *int // rank
	}{
		{name: "empty", resp: Response{}, studentID: 1, wantTop: []int{}},
		{
			name:      "student outside top: my position once",
			resp:      Response{Top: []Entry{ania, bartek, celina}, MyPosition: &Position{Rank: 4, Data: darek}},
			studentID: 4,
			wantTop:   []int{1, 2, 3},
			wantMine:  intPtr(4),
		},
		{
			name:      "student inside top: no extra row",
			resp:      Response{Top: []Entry{ania, bartek, celina}, MyPosition: &Position{Rank: 2, Data: bartek}},
			studentID: 2,
			wantTop:   []int{1, 2, 3},
		},
		{
			name:      "top trimmed to 3, student 4th",
			resp:      Response{Top: []Entry{ania, bartek, celina, darek}, MyPosition: &Position{Rank: 4, Data: darek}},
			studentID: 4,
			wantTop:   []int{1, 2, 3},
			wantMine:  intPtr(4),
		},
		{
			name:      "my position without student id",
			resp:      Response{Top: []Entry{ania}, MyPosition: &Position{Rank: 2, Data: Entry{StudentName: "bartek", Points: 15}}},
			studentID: 1,
			wantTop:   []int{1},
		},
		{
			name:      "no my position",
			resp:      Response{Top: []Entry{ania, bartek}},
			studentID: 4,
			wantTop:   []int{1, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := NewBoard(tt.resp, tt.studentID, 3)

			gotTop := make([]int, 0, len(board.Top))
			for _, row := range board.Top {
				gotTop = append(gotTop, row.StudentID)
			}
			assert.Equal(t, tt.wantTop, gotTop)

			if tt.wantMine == nil {
				assert.Nil(t, board.Mine)
				return
			}
			require.NotNil(t, board.Mine)
			assert.Equal(t, *tt.wantMine, board.Mine.Rank)
			assert.True(t, board.Mine.Mine)
			for _, row := range board.Top {
				assert.NotEqual(t, board.Mine.StudentID, row.StudentID, "my position duplicated in top")
			}
		})
	}
}

func TestNewBoard_medals(t *testing.T) {
	board := NewBoard(Response{Top: []Entry{ania, bartek, celina}}, 2, 0)
	require.Len(t, board.Top, 3)
	assert.Equal(t, []string{"gold", "silver", "bronze"}, []string{board.Top[0].Medal, board.Top[1].Medal, board.Top[2].Medal})
	assert.Equal(t, []int{1, 2, 3}, []int{board.Top[0].Rank, board.Top[1].Rank, board.Top[2].Rank})
	assert.True(t, board.Top[1].Mine)
	assert.False(t, board.Top[0].Mine)
}

func intPtr(i int) *int { return &i }

type stubBackend struct {
	group, top Response
	gotGroup   int
	calls      []string
}

func (b *stubBackend) GroupRanking(_ context.Context, groupID int) (Response, error) {
	b.calls = append(b.calls, "group")
	b.gotGroup = groupID
	return b.group, nil
}

func (b *stubBackend) TopRanking(context.Context) (Response, error) {
	b.calls = append(b.calls, "top")
	return b.top, nil
}

func TestService_ForStudent(t *testing.T) {
	be := &stubBackend{
		group: Response{Top: []Entry{ania, bartek, celina, darek}, MyPosition: &Position{Rank: 4, Data: darek}},
		top:   Response{Top: []Entry{bartek}},
	}
	svc := NewService(be, 3)

	board, err := svc.ForStudent(context.Background(), 2, darek.StudentID)
	require.NoError(t, err)
	assert.Equal(t, 2, be.gotGroup)
	assert.Len(t, board.Top, 3)
	require.NotNil(t, board.Mine)
	assert.Equal(t, 4, board.Mine.Rank)

	board, err = svc.ForStudent(context.Background(), 0, darek.StudentID)
	require.NoError(t, err)
	assert.Equal(t, []string{"group", "top"}, be.calls)
	assert.Len(t, board.Top, 1)
	assert.Nil(t, board.Mine)
}
