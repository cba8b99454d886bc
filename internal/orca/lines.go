package orca

import "github.com/orcacrowd/orca-sim/internal/obstacle"

// BuildLines assembles one agent's ORCA lines for the tick: obstacle
// constraints first (hard, in sorted proximity order), then agent-agent
// constraints (spec §4.4). obstacleCount is the number of hard lines at
// the front of the returned slice, needed by LinearProgram3.
func BuildLines(a AgentState, model *obstacle.Model, candidateEdges []obstacle.EdgeID, neighbors []Neighbor, dt float32) (lines []Line, obstacleCount int) {
	for _, e := range candidateEdges {
		if line, ok := ObstacleLine(a, model, e, lines); ok {
			lines = append(lines, line)
		}
	}
	obstacleCount = len(lines)

	for _, n := range neighbors {
		lines = append(lines, AgentLine(a, n, dt))
	}
	return lines, obstacleCount
}
