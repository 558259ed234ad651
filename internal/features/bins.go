package features

const (
	AgeGroupYoung  = "18–30"
	AgeGroupAdult  = "31–45"
	AgeGroupMiddle = "46–60"
	AgeGroupSenior = "60+"

	IncomeLow      = "Low"
	IncomeMedian   = "Median"
	IncomeHigh     = "High"
	IncomeVeryHigh = "Very High"

	DependentsNone = "None"
	DependentsFew  = "Few"
	DependentsMany = "Many"
)

// ageGroup usa rangos enteros cerrados; el limite superior de cada grupo pertenece al grupo.
func ageGroup(age int) (string, bool) {
	switch {
	case age < 18 || age > 100:
		return "", false
	case age <= 30:
		return AgeGroupYoung, true
	case age <= 45:
		return AgeGroupAdult, true
	case age <= 60:
		return AgeGroupMiddle, true
	default:
		return AgeGroupSenior, true
	}
}

// incomeBracket usa intervalos [low, high); el ultimo no tiene techo.
func incomeBracket(income float64) (string, bool) {
	switch {
	case income < 0:
		return "", false
	case income < 30000:
		return IncomeLow, true
	case income < 60000:
		return IncomeMedian, true
	case income < 100000:
		return IncomeHigh, true
	default:
		return IncomeVeryHigh, true
	}
}

// creditCategory devuelve el ordinal 0-3 de [0,400), [400,600), [600,800), [800,inf).
func creditCategory(score int) (int, bool) {
	switch {
	case score < 0:
		return 0, false
	case score < 400:
		return 0, true
	case score < 600:
		return 1, true
	case score < 800:
		return 2, true
	default:
		return 3, true
	}
}

func dependentsGroup(n int) string {
	switch {
	case n == 0:
		return DependentsNone
	case n <= 2:
		return DependentsFew
	default:
		return DependentsMany
	}
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
