//go:build dissect_diet

package engine

const reducedBuild = true
