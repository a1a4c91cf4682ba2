// Package testsupport builds in-memory image fixtures for package tests.
package testsupport
