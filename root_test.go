/*
 *  root_test.go
 *  hicomp
 *
 *  Created by Haibao Tang on 03/10/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package hicomp_test

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanghaibao/hicomp"
)

func TestCallCompartmentsCommand(t *testing.T) {
	m := hicomp.CheckerboardMatrix()
	coolPath := hicomp.WriteTestCooler(t, m)
	dir := t.TempDir()
	track := filepath.Join(dir, "gc.tsv")
	hicomp.WriteTestFile(t, track, hicomp.GCTrackContent(m, true))
	prefix := filepath.Join(dir, "sample")

	cmd := hicomp.NewRootCommand()
	cmd.SetArgs([]string{"call-compartments", coolPath,
		"--reference-track", track + "::GC",
		"--n-eigs", "2",
		"-o", prefix,
	})
	require.NoError(t, cmd.Execute())
	assert.FileExists(t, prefix+".cis.lam.txt")
	assert.FileExists(t, prefix+".cis.vecs.tsv")
}

func TestCallCompartmentsCommandRequiresPrefix(t *testing.T) {
	cmd := hicomp.NewRootCommand()
	cmd.SetOutput(ioutil.Discard)
	cmd.SetArgs([]string{"call-compartments", "matrix"})
	assert.Error(t, cmd.Execute())
}

func TestCallCompartmentsCommandBadContactType(t *testing.T) {
	cmd := hicomp.NewRootCommand()
	cmd.SetOutput(ioutil.Discard)
	cmd.SetArgs([]string{"call-compartments", "matrix", "--contact-type", "both", "-o", "out"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, hicomp.IsParameterError(err))
}
