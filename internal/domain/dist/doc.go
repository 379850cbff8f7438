// Package dist contains the core domain model of the shipping pipeline.
//
// It defines Platform (the three recognized distribution targets and their
// naming and container-format rules) and Layout (explicit path computation
// for the build output, the staging directory and the final archive).
package dist
