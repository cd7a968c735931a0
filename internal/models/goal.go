package models

// GoalType is the measured quantity a pact is judged on
type GoalType string

const (
	GoalDailySteps               GoalType = "dailySteps"
	GoalDailyRunDistance         GoalType = "dailyRunDistance"
	GoalDailyCaloriesBurned      GoalType = "dailyCaloriesBurned"
	GoalDailyScreenTimeMax       GoalType = "dailyScreenTimeMax"
	GoalDailyPhonePickupsMax     GoalType = "dailyPhonePickupsMax"
	GoalDailyCodeContribution    GoalType = "dailyCodeContribution"
	GoalDailyProblemsSolvedCount GoalType = "dailyProblemsSolvedCount"
	GoalTotalSteps               GoalType = "totalSteps"
	GoalTotalCaloriesBurned      GoalType = "totalCaloriesBurned"
	GoalTotalDistance            GoalType = "totalDistance"
	GoalTotalProblemsSolved      GoalType = "totalProblemsSolved"
)

var goalTypes = []GoalType{
	GoalDailySteps,
	GoalDailyRunDistance,
	GoalDailyCaloriesBurned,
	GoalDailyScreenTimeMax,
	GoalDailyPhonePickupsMax,
	GoalDailyCodeContribution,
	GoalDailyProblemsSolvedCount,
	GoalTotalSteps,
	GoalTotalCaloriesBurned,
	GoalTotalDistance,
	GoalTotalProblemsSolved,
}

// Valid reports whether g is part of the goal vocabulary
func (g GoalType) Valid() bool {
	for _, known := range goalTypes {
		if g == known {
			return true
		}
	}
	return false
}

// GoalTypes returns the full goal vocabulary
func GoalTypes() []GoalType {
	return append([]GoalType(nil), goalTypes...)
}

// VerificationType names the data source a trusted verifier reads
type VerificationType string

const (
	VerifyScreenTime           VerificationType = "screenTime"
	VerifyCodeHostingAPI       VerificationType = "codeHostingApi"
	VerifyProblemArchiveScrape VerificationType = "problemArchiveScrape"
	VerifyFitnessAPI           VerificationType = "fitnessApi"
)

// Valid reports whether v is a known verification source
func (v VerificationType) Valid() bool {
	switch v {
	case VerifyScreenTime, VerifyCodeHostingAPI, VerifyProblemArchiveScrape, VerifyFitnessAPI:
		return true
	}
	return false
}

// ComparisonOperator says how a measurement is compared to GoalValue
type ComparisonOperator string

const (
	CompareGreaterOrEqual ComparisonOperator = "greaterOrEqual"
	CompareLessOrEqual    ComparisonOperator = "lessOrEqual"
)

// Valid reports whether c is a known operator
func (c ComparisonOperator) Valid() bool {
	return c == CompareGreaterOrEqual || c == CompareLessOrEqual
}

// Goal groups the success condition of a pact
type Goal struct {
	Type       GoalType           `json:"goal_type"`
	Value      uint64             `json:"goal_value"`
	Verifier   VerificationType   `json:"verification_type"`
	Comparison ComparisonOperator `json:"comparison_operator"`
}
