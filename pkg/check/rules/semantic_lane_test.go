package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odrtools/odrlint/pkg/check"
)

func TestAccessNoMixAtSameOffset(t *testing.T) {
	ctx := loadCtx(t, `<OpenDRIVE>
  <header revMajor="1" revMinor="7"/>
  <road id="1" length="100" junction="-1">
    <planView><geometry s="0" x="0" y="0" hdg="0" length="100"><line/></geometry></planView>
    <lanes><laneSection s="0">
      <center><lane id="0" type="none" level="false"/></center>
      <right>
        <lane id="-1" type="driving" level="false">
          <width sOffset="0" a="3.5" b="0" c="0" d="0"/>
          <access sOffset="0" rule="deny" restriction="pedestrian"/>
          <access sOffset="0" rule="allow" restriction="bus"/>
          <access sOffset="5" rule="allow" restriction="taxi"/>
        </lane>
      </right>
    </laneSection></lanes>
  </road>
</OpenDRIVE>`)

	issues := checkAccessNoMix(ctx)
	require.Len(t, issues, 1)
	assert.Equal(t, check.SeverityError, issues[0].Severity)
	assert.Equal(t, 1, issues[0].Location.RoadID)
	assert.Equal(t, 0.0, issues[0].Location.S)
	require.NotNil(t, issues[0].Location.LaneID)
	assert.Equal(t, -1, *issues[0].Location.LaneID)
}

func TestAccessSameRuleAtSameOffsetIsFine(t *testing.T) {
	ctx := loadCtx(t, `<OpenDRIVE>
  <header revMajor="1" revMinor="7"/>
  <road id="1" length="100" junction="-1">
    <planView><geometry s="0" x="0" y="0" hdg="0" length="100"><line/></geometry></planView>
    <lanes><laneSection s="0">
      <center><lane id="0" type="none" level="false"/></center>
      <right>
        <lane id="-1" type="driving" level="false">
          <width sOffset="0" a="3.5" b="0" c="0" d="0"/>
          <access sOffset="0" rule="deny" restriction="pedestrian"/>
          <access sOffset="0" rule="deny" restriction="bicycle"/>
        </lane>
      </right>
    </laneSection></lanes>
  </road>
</OpenDRIVE>`)

	assert.Empty(t, checkAccessNoMix(ctx))
}

func TestLaneLevelFalseAfterTrue(t *testing.T) {
	ctx := loadCtx(t, `<OpenDRIVE>
  <header revMajor="1" revMinor="7"/>
  <road id="1" length="100" junction="-1">
    <planView><geometry s="0" x="0" y="0" hdg="0" length="100"><line/></geometry></planView>
    <lanes><laneSection s="0">
      <left>
        <lane id="2" type="sidewalk" level="false">
          <width sOffset="0" a="2" b="0" c="0" d="0"/>
        </lane>
        <lane id="1" type="driving" level="true">
          <width sOffset="0" a="3.5" b="0" c="0" d="0"/>
        </lane>
      </left>
      <center><lane id="0" type="none" level="false"/></center>
    </laneSection></lanes>
  </road>
</OpenDRIVE>`)

	issues := checkLaneLevelTrueOneSide(ctx)
	require.Len(t, issues, 1)
	assert.Equal(t, check.SeverityError, issues[0].Severity)
	assert.Equal(t, 50.0, issues[0].Location.S)
	require.NotNil(t, issues[0].Location.LaneID)
	assert.Equal(t, 2, *issues[0].Location.LaneID)
}

func TestLaneLevelChangeAcrossSections(t *testing.T) {
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
          <lane id="-1" type="driving" level="true">
            <link><predecessor id="-1"/></link>
            <width sOffset="0" a="3.5" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
</OpenDRIVE>`)

	issues := checkLaneLevelTrueOneSide(ctx)
	// One warning for the lane, not one per disagreeing link.
	require.Len(t, issues, 1)
	assert.Equal(t, check.SeverityWarning, issues[0].Severity)
	assert.Equal(t, 50.0, issues[0].Location.S)
}

func TestLanesAcrossSectionsMissingReciprocalLink(t *testing.T) {
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
            <width sOffset="0" a="3.5" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
</OpenDRIVE>`)

	issues := checkLanesAcrossLaneSections(ctx)
	require.Len(t, issues, 1)
	assert.Equal(t, check.SeverityError, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "reciprocal")
	assert.Equal(t, 50.0, issues[0].Location.S)
}

func TestLanesAcrossSectionsReciprocalIsFine(t *testing.T) {
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

	assert.Empty(t, checkLanesAcrossLaneSections(ctx))
}

func TestNewLaneAppearLinkedFromZeroWidth(t *testing.T) {
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
            <width sOffset="0" a="0" b="0.1" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
</OpenDRIVE>`)

	issues := checkNewLaneAppear(ctx)
	// The successor link of the first section points at a lane whose width
	// is zero at the boundary. The back link is fine: the first section's
	// lane is 3.5 m wide at its end.
	require.Len(t, issues, 1)
	assert.Equal(t, check.SeverityError, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "successor")
	assert.Equal(t, 50.0, issues[0].Location.S)
}
