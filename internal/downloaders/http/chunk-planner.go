package partgethttp

import (
	"github.com/tanq16/partget/internal/utils"
)

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// PlanChunks splits fileSize bytes into 1 to 6 contiguous inclusive ranges.
// It starts from 3 parts, drops parts while a part would be smaller than minChunkSize,
// then adds parts while a part would be larger than maxChunkSize.
// A plan that does not cover the file exactly is a bug and panics with *utils.InvariantViolation.
func PlanChunks(fileSize, minChunkSize, maxChunkSize int64) utils.DownloadPlan {
	if minChunkSize <= 0 {
		minChunkSize = utils.DefaultMinChunkSize
	}
	if maxChunkSize <= 0 {
		maxChunkSize = utils.DefaultMaxChunkSize
	}
	plan := utils.DownloadPlan{FileSize: max(fileSize, 0)}
	if fileSize <= 0 {
		return plan
	}

	totalParts := int64(utils.InitialParts)
	for ceilDiv(fileSize, totalParts) < minChunkSize && totalParts > 1 {
		totalParts--
	}
	for ceilDiv(fileSize, totalParts) > maxChunkSize && totalParts < utils.MaxParts {
		totalParts++
	}
	totalParts = max(totalParts, 1)

	plan.ChunkSize = ceilDiv(fileSize, totalParts)
	for i := range totalParts {
		start := i * plan.ChunkSize
		if start >= fileSize {
			break
		}
		end := min(start+plan.ChunkSize-1, fileSize-1)
		plan.Ranges = append(plan.Ranges, utils.ChunkRange{Index: int(i) + 1, Start: start, End: end})
	}
	if covered := plan.Covered(); covered != fileSize {
		panic(&utils.InvariantViolation{FileSize: fileSize, Covered: covered})
	}
	return plan
}

// SinglePart is the plan used when the server will not serve byte ranges.
func SinglePart(fileSize int64) utils.DownloadPlan {
	if fileSize <= 0 {
		return utils.DownloadPlan{}
	}
	return utils.DownloadPlan{
		FileSize:  fileSize,
		ChunkSize: fileSize,
		Ranges:    []utils.ChunkRange{{Index: 1, Start: 0, End: fileSize - 1}},
	}
}
