package trust

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/sells-group/trip-planner/internal/enrich"
	"github.com/sells-group/trip-planner/internal/model"
)

// sanitizeTrains removes ticket-style train numbers from rail entries and
// collapses duplicates. Specific train numbers out of a language model are
// unverifiable, so only route, class, and fare survive to display.
func sanitizeTrains(plan *model.TravelPlan) {
	for i := range plan.Trains {
		train := &plan.Trains[i]
		train.Route = tidy(enrich.ScrubTrainNumbers(train.Route))
		train.Class = tidy(enrich.ScrubTrainNumbers(train.Class))
		train.Price = tidy(enrich.ScrubTrainNumbers(train.Price))
		train.Notes = tidy(enrich.ScrubTrainNumbers(train.Notes))
	}

	plan.Trains = lo.UniqBy(plan.Trains, func(t model.TrainOption) string {
		return fmt.Sprintf("%s|%s|%s",
			strings.ToLower(t.Route),
			strings.ToLower(t.Class),
			strings.ToLower(t.Price),
		)
	})
}

func tidy(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
