package beacon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3/sign/bls"
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/log"

	"github.com/ceyhunalp/tyche"
)

func TestMain(m *testing.M) {
	log.MainTest(m)
}

func TestService(t *testing.T) {
	local := onet.NewTCPTest(cothority.Suite)
	hosts, roster, _ := local.GenTree(5, true)
	defer local.CloseAll()

	services := local.GetServices(hosts, serviceID)
	root := services[0].(*Beacon)
	dkgReply, err := root.InitDKG(&InitDKGRequest{Roster: roster})
	require.NoError(t, err)

	public := suite.G2().Point()
	require.NoError(t, public.UnmarshalBinary(dkgReply.Public))
	require.True(t, public.Equal(root.pubPoly.Commit()))

	// wait for DKG to finish on all
	time.Sleep(time.Second / 2)

	// round 0 (genesis)
	resp, err := root.Randomness(&RandomnessRequest{Roster: roster})
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Equal(t, []byte(tyche.GenesisSeed), resp.Randomness.Prev)
	require.NoError(t, resp.Randomness.Verify(public))

	// future rounds chain over the previous signature
	prevSig := resp.Randomness.Value
	for i := 0; i < 3; i++ {
		resp, err := root.Randomness(&RandomnessRequest{Roster: roster})
		require.NoError(t, err)
		require.Equal(t, uint64(i+1), resp.Randomness.Round)
		require.NoError(t, bls.Verify(suite, public, resp.Randomness.Prev, resp.Randomness.Value))
		require.Equal(t, prevSig, resp.Randomness.Prev[8:])
		prevSig = resp.Randomness.Value
	}
}
