// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

package containers_test

import (
	"testing"

	"github.com/amidgo/testboot/postgres/containers"
	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

func Test_HostPort_binds_postgres_port(t *testing.T) {
	t.Parallel()

	req := &testcontainers.GenericContainerRequest{}

	err := containers.HostPort("127.0.0.1", 5433).Customize(req)
	require.NoError(t, err)
	require.NotNil(t, req.HostConfigModifier)

	hc := &container.HostConfig{}

	req.HostConfigModifier(hc)

	bindings := hc.PortBindings["5432/tcp"]
	require.Len(t, bindings, 1)
	require.Equal(t, "127.0.0.1", bindings[0].HostIP)
	require.Equal(t, "5433", bindings[0].HostPort)
}
