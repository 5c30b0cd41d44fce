package aggregate

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var activityNames = map[string]string{
	"running":                       "Running",
	"walking":                       "Walking",
	"cycling":                       "Cycling",
	"swimming":                      "Swimming",
	"elliptical":                    "Elliptical",
	"rowing":                        "Rowing",
	"stairClimbing":                 "Stair Climbing",
	"jumpRope":                      "Jump Rope",
	"mixedCardio":                   "Mixed Cardio",
	"highIntensityIntervalTraining": "HIIT",
	"crossTraining":                 "Cross Training",
	"hiking":                        "Hiking",
	"traditionalStrengthTraining":   "Traditional Strength Training",
	"coreTraining":                  "Core Training",
	"functionalStrengthTraining":    "Functional Strength Training",
	"yoga":                          "Yoga",
	"pilates":                       "Pilates",
	"barre":                         "Barre",
	"flexibility":                   "Flexibility",
	"mindAndBody":                   "Mind And Body",
	"dance":                         "Dance",
	"cooldown":                      "Cool Down",
	"preparationAndRecovery":        "Preparation And Recovery",
	"tennis":                        "Tennis",
	"badminton":                     "Badminton",
	"racquetball":                   "Racquetball",
	"squash":                        "Squash",
	"tableTennis":                   "Table Tennis",
	"basketball":                    "Basketball",
	"soccer":                        "Soccer",
	"americanFootball":              "American Football",
	"baseball":                      "Baseball",
	"volleyball":                    "Volleyball",
	"hockey":                        "Hockey",
	"rugby":                         "Rugby",
	"cricket":                       "Cricket",
	"lacrosse":                      "Lacrosse",
	"softball":                      "Softball",
	"golf":                          "Golf",
	"trackAndField":                 "Track And Field",
	"martialArts":                   "Martial Arts",
	"boxing":                        "Boxing",
	"wrestling":                     "Wrestling",
	"archery":                       "Archery",
	"bowling":                       "Bowling",
	"climbing":                      "Climbing",
	"snowSports":                    "Snow Sports",
	"waterSports":                   "Water Sports",
	"waterFitness":                  "Water Fitness",
	"paddleSports":                  "Paddle Sports",
	"fishing":                       "Fishing",
	"hunting":                       "Hunting",
}

// KnownActivity reports whether id is a workout type accepted in workout_types
func KnownActivity(id string) bool {
	_, ok := activityNames[id]
	return ok
}

// ActivityName returns the display name for a workout activity identifier
// Unknown identifiers are split on case changes and title cased
func ActivityName(id string) string {
	if name, ok := activityNames[id]; ok {
		return name
	}
	if id == "" {
		return "Workout"
	}
	var b strings.Builder
	for i, r := range id {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return cases.Title(language.English).String(b.String())
}
