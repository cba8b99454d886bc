package orca

import (
	"math"

	"github.com/orcacrowd/orca-sim/internal/vecmath"
)

// linearProgram1 finds the point on line lines[lineNo] that satisfies the
// speed disk of radius and every preceding line in lines[:lineNo], and
// among those feasible points picks either the one closest to optVelocity
// (directionOpt false) or the endpoint furthest in the direction of
// optVelocity (directionOpt true). ok is false when the single-line problem
// is infeasible.
func linearProgram1(lines []Line, lineNo int, radius float32, optVelocity vecmath.Vec2, directionOpt bool, result *vecmath.Vec2) bool {
	line := lines[lineNo]

	dotProduct := line.Point.Dot(line.Direction)
	discriminant := dotProduct*dotProduct + radius*radius - line.Point.LengthSq()
	if discriminant < 0 {
		return false
	}

	sqrtDiscriminant := float32(math.Sqrt(float64(discriminant)))
	tLeft := -dotProduct - sqrtDiscriminant
	tRight := -dotProduct + sqrtDiscriminant

	for i := 0; i < lineNo; i++ {
		denominator := vecmath.Det(line.Direction, lines[i].Direction)
		numerator := vecmath.Det(lines[i].Direction, line.Point.Sub(lines[i].Point))

		if absf(denominator) <= vecmath.Eps {
			// Lines lineNo and i are (near) parallel.
			if numerator < 0 {
				return false
			}
			continue
		}

		t := numerator / denominator
		if denominator >= 0 {
			tRight = minf(tRight, t)
		} else {
			tLeft = maxf(tLeft, t)
		}
		if tLeft > tRight {
			return false
		}
	}

	if directionOpt {
		if optVelocity.Dot(line.Direction) > 0 {
			*result = line.Point.Add(line.Direction.Scale(tRight))
		} else {
			*result = line.Point.Add(line.Direction.Scale(tLeft))
		}
		return true
	}

	t := line.Direction.Dot(optVelocity.Sub(line.Point))
	if t < tLeft {
		t = tLeft
	} else if t > tRight {
		t = tRight
	}
	*result = line.Point.Add(line.Direction.Scale(t))
	return true
}

// LinearProgram2 solves the 2-D LP under the speed disk of radius R: find
// the velocity closest to optVelocity (or, when directionOpt, the fastest
// velocity in direction optVelocity) that satisfies every line in lines.
// Returns the number of lines satisfied; equal to len(lines) on full
// success, or the index of the first infeasible line otherwise (spec
// §4.5).
func LinearProgram2(lines []Line, radius float32, optVelocity vecmath.Vec2, directionOpt bool, result *vecmath.Vec2) int {
	if directionOpt {
		*result = optVelocity.Scale(radius)
	} else if optVelocity.LengthSq() > radius*radius {
		*result = optVelocity.Normalize().Scale(radius)
	} else {
		*result = optVelocity
	}

	for i, line := range lines {
		if vecmath.Det(line.Direction, line.Point.Sub(*result)) > 0 {
			saved := *result
			if !linearProgram1(lines, i, radius, optVelocity, directionOpt, result) {
				*result = saved
				return i
			}
		}
	}
	return len(lines)
}

// LinearProgram3 is the 3-D fallback invoked when LinearProgram2 reports
// infeasibility at line numFailed < len(lines). It minimizes penetration
// depth into the infeasible region while respecting the first numObstLines
// hard obstacle lines and the remaining agent lines projected onto the
// failing line (spec §4.5).
func LinearProgram3(lines []Line, numObstLines, numFailed int, radius float32, result *vecmath.Vec2) {
	distance := float32(0)

	for i := numFailed; i < len(lines); i++ {
		if vecmath.Det(lines[i].Direction, lines[i].Point.Sub(*result)) <= distance {
			continue
		}

		projected := make([]Line, numObstLines, len(lines))
		copy(projected, lines[:numObstLines])

		for j := numObstLines; j < i; j++ {
			var line Line
			determinant := vecmath.Det(lines[i].Direction, lines[j].Direction)

			if absf(determinant) <= vecmath.Eps {
				// Codirectional or antidirectional.
				if lines[i].Direction.Dot(lines[j].Direction) > 0 {
					// Codirectional: line j is not relevant.
					continue
				}
				line.Point = lines[i].Point.Add(lines[j].Point).Scale(0.5)
			} else {
				t := vecmath.Det(lines[j].Direction, lines[i].Point.Sub(lines[j].Point)) / determinant
				line.Point = lines[i].Point.Add(lines[i].Direction.Scale(t))
			}

			line.Direction = lines[j].Direction.Sub(lines[i].Direction).Normalize()
			projected = append(projected, line)
		}

		savedResult := *result
		if failed := LinearProgram2(projected, radius, lines[i].Direction.Rot90CCW(), true, result); failed < len(projected) {
			// The hard obstacle lines alone are infeasible: keep the
			// seed velocity unchanged.
			*result = savedResult
		}

		distance = vecmath.Det(lines[i].Direction, lines[i].Point.Sub(*result))
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
