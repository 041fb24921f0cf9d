// Package resolver implements the best-first search Resolver component:
// it walks a depgraph.Builder's elements, generating candidate Solutions
// until one satisfies every hard relation, guided by a version-weight and
// action-profit scoring model.
package resolver

import (
	"math"

	"github.com/debcore/debcore/cache"
)

// priorityMultiplier maps a version's archive Priority field to the
// multiplier used by version weight.
func priorityMultiplier(p cache.Priority) float64 {
	switch p {
	case cache.PriorityRequired:
		return 2.0
	case cache.PriorityImportant:
		return 1.4
	case cache.PriorityStandard:
		return 1.0
	case cache.PriorityOptional:
		return 0.9
	case cache.PriorityExtra:
		return 0.7
	default:
		return 1.0
	}
}

const (
	essentialWeightMultiplier    = 5.0
	autoInstalledDivisor         = 12.0
	newPackageDivisor            = 100.0
	noGainInstallPenalty         = -15.0
	removalBasePenalty           = -50.0
	removalNegativeMultiplier    = 4.0
)

// versionWeight scores how "good" installing v would be, combining its
// pin priority, archive priority and essential/auto-installed/new-package
// status. Higher is better.
func versionWeight(pin int, v *cache.BinaryVersion, autoInstalled, newPackage bool) float64 {
	w := float64(pin) * priorityMultiplier(v.Priority)
	if v.Essential {
		w *= essentialWeightMultiplier
	}
	if w > 0 {
		// only positive weights get divided down, so a package that is
		// already a net loss keeps its full negative effect
		if autoInstalled {
			w /= autoInstalledDivisor
		} else if newPackage {
			w /= newPackageDivisor
		}
	}
	return w
}

// actionProfit scores the desirability of moving a package from
// originalWeight to supposedWeight. When the package had no original
// version at all, installing it gains nothing by itself, so supposedWeight
// is docked before the diff is taken. A removal is penalized more heavily
// still, and the result is multiplied by four if already net-negative.
func actionProfit(originalWeight, supposedWeight float64, hasOriginal, isRemoval bool) float64 {
	if !hasOriginal {
		supposedWeight += noGainInstallPenalty
	}
	profit := supposedWeight - originalWeight
	if isRemoval {
		profit += removalBasePenalty
		if profit < 0 {
			profit *= removalNegativeMultiplier
		}
	}
	return profit
}

// qualityCorrection computes the backtracking bias applied to an action's
// profit at a given search depth: deeper levels are discounted less
// aggressively than shallow ones, so early greedy mistakes are easier to
// correct than late ones: qualityCorrection = -qualityBar / (level+1)^0.1.
func qualityCorrection(qualityBar float64, level int) float64 {
	return -qualityBar / math.Pow(float64(level+1), 0.1)
}
