// Package report draws correlation functions: static PNG files through
// gonum/plot and a single interactive HTML page through go-echarts.
//
// Dependency rule: report depends on hist and fsutil only.
package report
