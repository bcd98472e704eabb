package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odrtools/odrlint/pkg/check"
)

func TestHorizontalGapAtSectionBoundary(t *testing.T) {
	// Lane -1 jumps from 3.5 m to 4.0 m width at s=50, leaving a 0.5 m step
	// in its outer border.
	ctx := loadCtx(t, `<OpenDRIVE>
  <header revMajor="1" revMinor="7"/>
  <road id="1" length="100" junction="-1">
    <planView><geometry s="0" x="0" y="0" hdg="0" length="100"><line/></geometry></planView>
    <lanes>
      <laneSection s="0">
        <center><lane id="0" type="none" level="false"/></center>
        <right>
          <lane id="-1" type="driving" level="false">
            <link><successor id="-1"/></link>
            <width sOffset="0" a="3.5" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
      <laneSection s="50">
        <center><lane id="0" type="none" level="false"/></center>
        <right>
          <lane id="-1" type="driving" level="false">
            <link><predecessor id="-1"/></link>
            <width sOffset="0" a="4.0" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
</OpenDRIVE>`)
	ctx.Tol.HorizontalGap = 0.05

	issues := checkContactPointNoHorizontalGaps(ctx)
	require.Len(t, issues, 1)
	assert.Equal(t, check.SeverityError, issues[0].Severity)
	assert.Equal(t, 1, issues[0].Location.RoadID)
	assert.Equal(t, 50.0, issues[0].Location.S)
	require.NotNil(t, issues[0].Location.LaneID)
	assert.Equal(t, -1, *issues[0].Location.LaneID)
}

func TestNoGapWhenWidthsAgree(t *testing.T) {
	ctx := loadCtx(t, `<OpenDRIVE>
  <header revMajor="1" revMinor="7"/>
  <road id="1" length="100" junction="-1">
    <planView><geometry s="0" x="0" y="0" hdg="0" length="100"><line/></geometry></planView>
    <lanes>
      <laneSection s="0">
        <center><lane id="0" type="none" level="false"/></center>
        <right>
          <lane id="-1" type="driving" level="false">
            <link><successor id="-1"/></link>
            <width sOffset="0" a="3.5" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
      <laneSection s="50">
        <center><lane id="0" type="none" level="false"/></center>
        <right>
          <lane id="-1" type="driving" level="false">
            <link><predecessor id="-1"/></link>
            <width sOffset="0" a="3.5" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
</OpenDRIVE>`)

	assert.Empty(t, checkContactPointNoHorizontalGaps(ctx))
}

func TestGapAcrossRoadContactPoint(t *testing.T) {
	// Road 2 continues road 1 but its lane -1 is half a meter wider from
	// the first sample on.
	ctx := loadCtx(t, `<OpenDRIVE>
  <header revMajor="1" revMinor="7"/>
  <road id="1" length="50" junction="-1">
    <link><successor elementType="road" elementId="2" contactPoint="start"/></link>
    <planView><geometry s="0" x="0" y="0" hdg="0" length="50"><line/></geometry></planView>
    <lanes>
      <laneSection s="0">
        <center><lane id="0" type="none" level="false"/></center>
        <right>
          <lane id="-1" type="driving" level="false">
            <link><successor id="-1"/></link>
            <width sOffset="0" a="3.5" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
  <road id="2" length="50" junction="-1">
    <planView><geometry s="0" x="50" y="0" hdg="0" length="50"><line/></geometry></planView>
    <lanes>
      <laneSection s="0">
        <center><lane id="0" type="none" level="false"/></center>
        <right>
          <lane id="-1" type="driving" level="false">
            <width sOffset="0" a="4.0" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
</OpenDRIVE>`)
	ctx.Tol.HorizontalGap = 0.05

	issues := checkContactPointNoHorizontalGaps(ctx)
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Location.RoadID)
	assert.Equal(t, 50.0, issues[0].Location.S)
	assert.Contains(t, issues[0].Message, "road 2")
}

func TestGapAcrossReciprocalRoadLinkReportedOnce(t *testing.T) {
	// Both roads declare the link, as the lane-continuity rule requires.
	// The single physical 0.5 m step must still yield exactly one issue.
	ctx := loadCtx(t, `<OpenDRIVE>
  <header revMajor="1" revMinor="7"/>
  <road id="1" length="50" junction="-1">
    <link><successor elementType="road" elementId="2" contactPoint="start"/></link>
    <planView><geometry s="0" x="0" y="0" hdg="0" length="50"><line/></geometry></planView>
    <lanes>
      <laneSection s="0">
        <center><lane id="0" type="none" level="false"/></center>
        <right>
          <lane id="-1" type="driving" level="false">
            <link><successor id="-1"/></link>
            <width sOffset="0" a="3.5" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
  <road id="2" length="50" junction="-1">
    <link><predecessor elementType="road" elementId="1" contactPoint="end"/></link>
    <planView><geometry s="0" x="50" y="0" hdg="0" length="50"><line/></geometry></planView>
    <lanes>
      <laneSection s="0">
        <center><lane id="0" type="none" level="false"/></center>
        <right>
          <lane id="-1" type="driving" level="false">
            <link><predecessor id="-1"/></link>
            <width sOffset="0" a="4.0" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
</OpenDRIVE>`)
	ctx.Tol.HorizontalGap = 0.05

	issues := checkContactPointNoHorizontalGaps(ctx)
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Location.RoadID)
	assert.Equal(t, 50.0, issues[0].Location.S)
	require.NotNil(t, issues[0].Location.LaneID)
	assert.Equal(t, -1, *issues[0].Location.LaneID)
}

func TestGapAtJunctionContactPoint(t *testing.T) {
	// The connecting road's lane is half a meter wider than the incoming
	// lane feeding it through the junction connection.
	ctx := loadCtx(t, `<OpenDRIVE>
  <header revMajor="1" revMinor="7"/>
  <road id="1" length="50" junction="-1">
    <link><successor elementType="junction" elementId="9"/></link>
    <planView><geometry s="0" x="0" y="0" hdg="0" length="50"><line/></geometry></planView>
    <lanes>
      <laneSection s="0">
        <center><lane id="0" type="none" level="false"/></center>
        <right>
          <lane id="-1" type="driving" level="false">
            <width sOffset="0" a="3.5" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
  <road id="2" length="20" junction="9">
    <planView><geometry s="0" x="50" y="0" hdg="0" length="20"><line/></geometry></planView>
    <lanes>
      <laneSection s="0">
        <center><lane id="0" type="none" level="false"/></center>
        <right>
          <lane id="-1" type="driving" level="false">
            <width sOffset="0" a="4.0" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
  <junction id="9">
    <connection id="0" incomingRoad="1" connectingRoad="2" contactPoint="start">
      <laneLink from="-1" to="-1"/>
    </connection>
  </junction>
</OpenDRIVE>`)
	ctx.Tol.HorizontalGap = 0.05

	issues := checkContactPointNoHorizontalGaps(ctx)
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Location.RoadID)
	assert.Equal(t, 50.0, issues[0].Location.S)
	assert.Contains(t, issues[0].Message, "junction 9")
}

func TestNoGapAtJunctionContactPoint(t *testing.T) {
	ctx := loadCtx(t, `<OpenDRIVE>
  <header revMajor="1" revMinor="7"/>
  <road id="1" length="50" junction="-1">
    <link><successor elementType="junction" elementId="9"/></link>
    <planView><geometry s="0" x="0" y="0" hdg="0" length="50"><line/></geometry></planView>
    <lanes>
      <laneSection s="0">
        <center><lane id="0" type="none" level="false"/></center>
        <right>
          <lane id="-1" type="driving" level="false">
            <width sOffset="0" a="3.5" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
  <road id="2" length="20" junction="9">
    <planView><geometry s="0" x="50" y="0" hdg="0" length="20"><line/></geometry></planView>
    <lanes>
      <laneSection s="0">
        <center><lane id="0" type="none" level="false"/></center>
        <right>
          <lane id="-1" type="driving" level="false">
            <width sOffset="0" a="3.5" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
  <junction id="9">
    <connection id="0" incomingRoad="1" connectingRoad="2" contactPoint="start">
      <laneLink from="-1" to="-1"/>
    </connection>
  </junction>
</OpenDRIVE>`)

	assert.Empty(t, checkContactPointNoHorizontalGaps(ctx))
}

func TestNonDrivableLanesIgnored(t *testing.T) {
	ctx := loadCtx(t, `<OpenDRIVE>
  <header revMajor="1" revMinor="7"/>
  <road id="1" length="100" junction="-1">
    <planView><geometry s="0" x="0" y="0" hdg="0" length="100"><line/></geometry></planView>
    <lanes>
      <laneSection s="0">
        <center><lane id="0" type="none" level="false"/></center>
        <right>
          <lane id="-1" type="sidewalk" level="false">
            <link><successor id="-1"/></link>
            <width sOffset="0" a="3.5" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
      <laneSection s="50">
        <center><lane id="0" type="none" level="false"/></center>
        <right>
          <lane id="-1" type="sidewalk" level="false">
            <link><predecessor id="-1"/></link>
            <width sOffset="0" a="4.0" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
</OpenDRIVE>`)
	ctx.Tol.HorizontalGap = 0.05

	assert.Empty(t, checkContactPointNoHorizontalGaps(ctx))
}
